package roll_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/engine"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/roll"
)

func maxGen() *engine.Generator { return engine.NewGenerator(engine.NewMax()) }

func minGen() *engine.Generator { return engine.NewGenerator(engine.Min{}) }

var sampleNotations = []string{
	"2d6+4",
	"4d6kh3",
	"3d10!",
	"{2d6, 1d8}kh1",
	"2d20>10",
	"floor(3d6/2)",
	"4dF",
	"5d6r<2dl1",
	"(2d6)*1.5",
	"1d100-1d%",
}

func TestNew_OutputAtMaximum(t *testing.T) {
	r, err := roll.New("2d6+4", roll.WithGenerator(maxGen()))
	require.NoError(t, err)
	assert.Equal(t, "2d6+4", r.Notation())
	assert.Equal(t, "2d6+4: [6, 6]+4 = 16", r.Output())
	assert.Equal(t, r.Output(), r.String())
	assert.Equal(t, 16.0, r.Total())
}

func TestNew_OutputAtMinimum(t *testing.T) {
	r, err := roll.New("2d6+4", roll.WithGenerator(minGen()))
	require.NoError(t, err)
	assert.Equal(t, "2d6+4: [1, 1]+4 = 6", r.Output())
}

func TestDiceRoll_Bounds(t *testing.T) {
	r, err := roll.New("2d6+4", roll.WithGenerator(minGen()))
	require.NoError(t, err)
	assert.Equal(t, 6.0, r.MinTotal())
	assert.Equal(t, 16.0, r.MaxTotal())
	assert.Equal(t, 11.0, r.AverageTotal())

	g, err := roll.New("{1d4, 2d6}+1", roll.WithGenerator(minGen()))
	require.NoError(t, err)
	assert.Equal(t, 4.0, g.MinTotal())
	assert.Equal(t, 17.0, g.MaxTotal())
}

func TestDiceRoll_TotalsRoundToTwoPlaces(t *testing.T) {
	r, err := roll.New("10/3", roll.WithGenerator(minGen()))
	require.NoError(t, err)
	assert.Equal(t, 3.33, r.Total())

	r, err = roll.New("1d6/4", roll.WithGenerator(maxGen()))
	require.NoError(t, err)
	assert.Equal(t, 1.5, r.Total())
}

func TestDiceRoll_RollAgain(t *testing.T) {
	gen := engine.NewGenerator(engine.NewMT19937(42))
	r, err := roll.New("10d20", roll.WithGenerator(gen))
	require.NoError(t, err)
	first := r.Output()

	require.NoError(t, r.Roll())
	assert.NotEqual(t, first, r.Output())
	assert.GreaterOrEqual(t, r.Total(), r.MinTotal())
	assert.LessOrEqual(t, r.Total(), r.MaxTotal())
	assert.Equal(t, "10d20", r.Notation())
}

func TestNew_Errors(t *testing.T) {
	_, err := roll.New("")
	assert.ErrorIs(t, err, errs.ErrRequiredArgument)

	_, err = roll.New("2d6+")
	assert.ErrorIs(t, err, errs.ErrNotationSyntax)

	_, err = roll.New("1d1!")
	assert.ErrorIs(t, err, errs.ErrDieAction)
}

func TestDiceRoll_Export(t *testing.T) {
	r, err := roll.New("2d6+4", roll.WithGenerator(maxGen()))
	require.NoError(t, err)

	js, err := r.Export(roll.FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, js, `"type":"dice-roll"`)
	assert.Contains(t, js, `"notation":"2d6+4"`)
	assert.Contains(t, js, `"total":16`)

	b64, err := r.Export(roll.FormatBase64)
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(b64.(string))
	require.NoError(t, err)
	assert.Equal(t, js, string(decoded))

	obj, err := r.Export(roll.FormatObject)
	require.NoError(t, err)
	m := obj.(map[string]any)
	assert.Equal(t, "2d6+4", m["notation"])
	assert.Equal(t, 16.0, m["total"])
	assert.Equal(t, 6.0, m["minTotal"])

	y, err := r.Export(roll.FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, y, "notation: 2d6+4")

	_, err = r.Export(roll.Format(99))
	assert.ErrorIs(t, err, errs.ErrTypeMismatch)
}

func TestParseFormat(t *testing.T) {
	for _, f := range []roll.Format{roll.FormatJSON, roll.FormatBase64, roll.FormatObject, roll.FormatYAML} {
		got, err := roll.ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	got, err := roll.ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, roll.FormatYAML, got)

	_, err = roll.ParseFormat("xml")
	assert.ErrorIs(t, err, errs.ErrTypeMismatch)
}

func TestImport_EveryFormat(t *testing.T) {
	r, err := roll.New("4d6kh3+2", roll.WithGenerator(engine.NewGenerator(engine.NewMT19937(7))))
	require.NoError(t, err)

	for _, f := range []roll.Format{roll.FormatJSON, roll.FormatBase64, roll.FormatObject, roll.FormatYAML} {
		t.Run(f.String(), func(t *testing.T) {
			data, err := r.Export(f)
			require.NoError(t, err)
			got, err := roll.Import(data)
			require.NoError(t, err)
			assert.Equal(t, r.Output(), got.Output())
			assert.Equal(t, r.Total(), got.Total())
		})
	}

	raw, err := r.MarshalJSON()
	require.NoError(t, err)
	got, err := roll.Import(raw)
	require.NoError(t, err)
	assert.Equal(t, r.Output(), got.Output())

	got, err = roll.Import(r)
	require.NoError(t, err)
	assert.Equal(t, r.Output(), got.Output())
}

func TestImport_WithoutRollsRollsAfresh(t *testing.T) {
	got, err := roll.Import(map[string]any{"notation": "3d6"}, roll.WithGenerator(maxGen()))
	require.NoError(t, err)
	assert.Equal(t, "3d6: [6, 6, 6] = 18", got.Output())
}

func TestImport_Errors(t *testing.T) {
	_, err := roll.Import(nil)
	assert.ErrorIs(t, err, errs.ErrRequiredArgument)

	_, err = roll.Import("   ")
	assert.ErrorIs(t, err, errs.ErrRequiredArgument)

	_, err = roll.Import(42)
	assert.ErrorIs(t, err, errs.ErrDataFormat)

	_, err = roll.Import("not an export")
	assert.ErrorIs(t, err, errs.ErrDataFormat)

	_, err = roll.Import(map[string]any{"rolls": []any{}})
	assert.ErrorIs(t, err, errs.ErrDataFormat)

	_, err = roll.Import(map[string]any{"notation": "1d6", "rolls": "nope"})
	assert.ErrorIs(t, err, errs.ErrDataFormat)

	_, err = roll.Import(map[string]any{"notation": "1d6", "rolls": []any{"+"}})
	assert.ErrorIs(t, err, errs.ErrDataFormat)

	_, err = roll.Import(`{"notation": "2d"}`)
	assert.ErrorIs(t, err, errs.ErrNotationSyntax)
}

func TestImport_ExportIsStable(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		notation := rapid.SampledFrom(sampleNotations).Draw(rt, "notation")
		seed := rapid.Uint32().Draw(rt, "seed")
		format := rapid.SampledFrom([]roll.Format{roll.FormatJSON, roll.FormatObject}).Draw(rt, "format")

		r, err := roll.New(notation, roll.WithGenerator(engine.NewGenerator(engine.NewMT19937(seed))))
		require.NoError(rt, err)
		first, err := r.Export(format)
		require.NoError(rt, err)

		imported, err := roll.Import(first)
		require.NoError(rt, err)
		second, err := imported.Export(format)
		require.NoError(rt, err)
		assert.Equal(rt, first, second)
	})
}
