package roll_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/engine"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/roll"
)

type fakeRecorder struct {
	mu       sync.Mutex
	totals   []float64
	results  int
	failures []string
}

func (f *fakeRecorder) ObserveRoll(total float64, results int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totals = append(f.totals, total)
	f.results += results
}

func (f *fakeRecorder) ObserveFailure(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, reason)
}

func seeded(seed uint32) roll.Option {
	return roll.WithGenerator(engine.NewGenerator(engine.NewMT19937(seed)))
}

func TestDiceRoller_RollAllAndClear(t *testing.T) {
	r := roll.NewDiceRoller(seeded(3))
	rolls, err := r.RollAll("2d6", "3d8")
	require.NoError(t, err)
	require.Len(t, rolls, 2)

	log := r.Log()
	require.Len(t, log, 2)
	assert.Equal(t, "2d6", log[0].Notation())
	assert.Equal(t, "3d8", log[1].Notation())
	assert.Equal(t, log[0].Total()+log[1].Total(), r.Total())
	assert.Equal(t, log[0].Output()+"; "+log[1].Output(), r.Output())

	r.ClearLog()
	assert.Empty(t, r.Log())
	assert.Equal(t, 0.0, r.Total())
	assert.Equal(t, "", r.Output())
}

func TestDiceRoller_FailedRollLeavesLogUntouched(t *testing.T) {
	r := roll.NewDiceRoller()
	_, err := r.Roll("1d6")
	require.NoError(t, err)

	_, err = r.RollAll("1d6", "1d")
	assert.ErrorIs(t, err, errs.ErrNotationSyntax)
	assert.Equal(t, 1, r.Len())

	_, err = r.RollAll()
	assert.ErrorIs(t, err, errs.ErrRequiredArgument)
}

func TestDiceRoller_LogIsACopy(t *testing.T) {
	r := roll.NewDiceRoller()
	_, err := r.Roll("1d6")
	require.NoError(t, err)
	log := r.Log()
	log[0] = nil
	assert.NotNil(t, r.Log()[0])
}

func TestDiceRoller_ExportImportRoundTrip(t *testing.T) {
	r := roll.NewDiceRoller(seeded(11))
	_, err := r.RollAll("4d6kh3", "2d20>10", "{1d8, 1d10}+3")
	require.NoError(t, err)

	for _, f := range []roll.Format{roll.FormatJSON, roll.FormatBase64, roll.FormatObject, roll.FormatYAML} {
		t.Run(f.String(), func(t *testing.T) {
			data, err := r.Export(f)
			require.NoError(t, err)

			imported, err := roll.ImportDiceRoller(data)
			require.NoError(t, err)
			require.Equal(t, r.Len(), imported.Len())
			for i, want := range r.Log() {
				got := imported.Log()[i]
				assert.Equal(t, want.Notation(), got.Notation())
				assert.Equal(t, want.Output(), got.Output())
				assert.Equal(t, want.Total(), got.Total())
			}
			assert.Equal(t, r.Total(), imported.Total())
			assert.Equal(t, r.Output(), imported.Output())
		})
	}
}

func TestDiceRoller_ImportAppends(t *testing.T) {
	src := roll.NewDiceRoller(seeded(5))
	_, err := src.RollAll("1d6", "1d8")
	require.NoError(t, err)

	dst := roll.NewDiceRoller(seeded(6))
	_, err = dst.Roll("1d4")
	require.NoError(t, err)

	require.NoError(t, dst.Import(src))
	assert.Equal(t, 3, dst.Len())

	require.NoError(t, dst.Import(src.Log()))
	assert.Equal(t, 5, dst.Len())

	single, err := src.Log()[0].Export(roll.FormatJSON)
	require.NoError(t, err)
	require.NoError(t, dst.Import(single))
	assert.Equal(t, 6, dst.Len())

	list := []any{map[string]any{"notation": "2d6"}}
	require.NoError(t, dst.Import(list))
	assert.Equal(t, 7, dst.Len())
	assert.Equal(t, "2d6", dst.Log()[6].Notation())
}

func TestDiceRoller_ImportErrors(t *testing.T) {
	r := roll.NewDiceRoller()

	assert.ErrorIs(t, r.Import(nil), errs.ErrRequiredArgument)
	assert.ErrorIs(t, r.Import(map[string]any{"log": "nope"}), errs.ErrDataFormat)
	assert.ErrorIs(t, r.Import(map[string]any{"other": 1}), errs.ErrDataFormat)
	assert.ErrorIs(t, r.Import([]any{map[string]any{"notation": "1d6"}, 3}), errs.ErrDataFormat)
	assert.Equal(t, 0, r.Len())

	_, err := roll.ImportDiceRoller("garbage")
	assert.ErrorIs(t, err, errs.ErrDataFormat)
}

func TestDiceRoller_EmptyExport(t *testing.T) {
	r := roll.NewDiceRoller()
	js, err := r.Export(roll.FormatJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"diceRoller","log":[],"output":"","total":0}`, js.(string))

	imported, err := roll.ImportDiceRoller(js)
	require.NoError(t, err)
	assert.Equal(t, 0, imported.Len())
}

func TestDiceRoller_LogsAndRecords(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rec := &fakeRecorder{}
	r := roll.NewDiceRoller(
		roll.WithGenerator(maxGen()),
		roll.WithLogger(zap.New(core)),
		roll.WithRecorder(rec),
	)

	_, err := r.Roll("{2d6, 1d4}")
	require.NoError(t, err)
	_, err = r.Roll("2d")
	require.Error(t, err)

	rolled := logs.FilterMessage("dice roll").All()
	require.Len(t, rolled, 1)
	fields := rolled[0].ContextMap()
	assert.Equal(t, "{2d6, 1d4}", fields["notation"])
	assert.Equal(t, 16.0, fields["total"])
	assert.NotEmpty(t, fields["roll_id"])

	failed := logs.FilterMessage("dice roll failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.WarnLevel, failed[0].Level)

	assert.Equal(t, []float64{16}, rec.totals)
	assert.Equal(t, 3, rec.results)
	assert.Equal(t, []string{"notation_syntax"}, rec.failures)
}

func TestDiceRoller_ConcurrentRolls(t *testing.T) {
	r := roll.NewDiceRoller()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, err := r.Roll("1d20")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 80, r.Len())
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "required_argument", roll.FailureReason(errs.RequiredArgument("x")))
	assert.Equal(t, "data_format", roll.FailureReason(errs.DataFormat("bad")))
	assert.Equal(t, "type_mismatch", roll.FailureReason(errs.TypeMismatch("bad")))
	assert.Equal(t, "compare_operator", roll.FailureReason(errs.CompareOperator("~")))
	assert.Equal(t, "die_action", roll.FailureReason(&errs.DieActionError{Action: "explode", Die: "1d1"}))
	assert.Equal(t, "unknown", roll.FailureReason(assert.AnError))
}
