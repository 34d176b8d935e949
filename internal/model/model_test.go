package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSome_NonFiniteIsMissing(t *testing.T) {
	t.Parallel()

	assert.True(t, Some(math.NaN()).IsMissing())
	assert.True(t, Some(math.Inf(1)).IsMissing())
	assert.True(t, Some(math.Inf(-1)).IsMissing())
	assert.False(t, Some(0).IsMissing())
	assert.Equal(t, 3.5, Some(3.5).Value)
}

func TestNum_JSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(struct {
		A Num `json:"a"`
		B Num `json:"b"`
	}{A: Some(1.25), B: Missing()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.25,"b":null}`, string(b))

	var out struct {
		A Num `json:"a"`
		B Num `json:"b"`
	}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, Some(1.25), out.A)
	assert.True(t, out.B.IsMissing())
}

func TestNum_Or(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7.0, Missing().Or(7))
	assert.Equal(t, 2.0, Some(2).Or(7))
	assert.Equal(t, "", Missing().String())
	assert.Equal(t, "0.5", Some(0.5).String())
}

func TestCuatrimestreColumn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		c    Cuatrimestre
		want PeriodColumn
	}{
		{C1, EneAbr},
		{C2, MayAgo},
		{C3, SepDic},
		{Cuatrimestre("C9"), EneAbr},
	}

	for _, tt := range tests {
		t.Run(string(tt.c), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.c.Column())
		})
	}
}

func TestParseCuatrimestre(t *testing.T) {
	t.Parallel()

	c, err := ParseCuatrimestre(" c3 ")
	require.NoError(t, err)
	assert.Equal(t, C3, c)

	c, err = ParseCuatrimestre("")
	require.NoError(t, err)
	assert.Equal(t, C2, c)

	_, err = ParseCuatrimestre("C4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown cuatrimestre")
}

func TestPeriodLabels(t *testing.T) {
	t.Parallel()

	p := Period{Cuatrimestre: C2, Year: 2025}
	assert.Equal(t, "C2 2025", p.Label())
	assert.Equal(t, "Mayo – Agosto 2025", p.Extended())
	assert.Equal(t, "C2_2025", p.FileSuffix())
	assert.Equal(t, MayAgo, p.Column())
	assert.NoError(t, p.Validate())

	assert.Error(t, Period{Cuatrimestre: C1, Year: 2019}.Validate())
	assert.Error(t, Period{Cuatrimestre: C1, Year: 2036}.Validate())
}

func TestDefaultYear(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2026, DefaultYear(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, MaxYear, DefaultYear(time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, MaxYear, DefaultYear(time.Date(2040, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestTargetRow_Target(t *testing.T) {
	t.Parallel()

	row := TargetRow{EneAbr: Some(1), MayAgo: Some(2), SepDic: Missing()}
	assert.Equal(t, Some(1), row.Target(EneAbr))
	assert.Equal(t, Some(2), row.Target(MayAgo))
	assert.True(t, row.Target(SepDic).IsMissing())
	assert.True(t, row.Target(PeriodColumn("x")).IsMissing())
}

func TestStatusLabels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status    Status
		label     string
		semaphore string
	}{
		{StatusOnTarget, "verde", "🟢 Verde"},
		{StatusBelowTarget, "rojo", "🔴 Rojo"},
		{StatusPending, "pendiente", "🟡 Pendiente"},
		{StatusNoData, "sin dato", "⚪ Sin dato"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.label, tt.status.Label())
			assert.Equal(t, tt.semaphore, tt.status.Semaphore())
		})
	}
}

func TestParseProgramCode(t *testing.T) {
	t.Parallel()

	c, ok := ParseProgramCode(" iecsa")
	assert.True(t, ok)
	assert.Equal(t, ProgramIECSA, c)

	_, ok = ParseProgramCode("XYZ")
	assert.False(t, ok)
}

func TestRecordGet(t *testing.T) {
	t.Parallel()

	r := Record{Fields: map[string]string{ColProgram: "  TSU en Aviónica "}}
	assert.Equal(t, "TSU en Aviónica", r.Name())
	assert.Equal(t, "", r.Get(ColSex))
}
