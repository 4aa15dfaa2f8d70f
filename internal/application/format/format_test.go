package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatter_Date(t *testing.T) {
	tests := []struct {
		locale string
		raw    string
		want   string
	}{
		{"fr", "2004-04-04", "4 Avr. 04"},
		{"fr", "2001-01-01", "1 Jan. 01"},
		{"fr", "2002-02-02", "2 Fév. 02"},
		{"fr", "2021-08-15", "15 Aoû. 21"},
		{"fr", "2021-12-31", "31 Déc. 21"},
		{"fr", "2021-06-05T10:00:00Z", "5 Jui. 21"},
		{"en", "2004-04-04", "4 Apr. 04"},
		{"en-GB", "1999-09-09", "9 Sep. 99"},
	}

	for _, tt := range tests {
		t.Run(tt.locale+"/"+tt.raw, func(t *testing.T) {
			got, err := New(tt.locale).Date(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatter_DateInvalid(t *testing.T) {
	for _, raw := range []string{"", "not a date", "2004-13-01", "04/04/2004"} {
		t.Run(raw, func(t *testing.T) {
			_, err := New("fr").Date(raw)
			assert.ErrorIs(t, err, ErrInvalidDate)
		})
	}
}

func TestFormatter_Status(t *testing.T) {
	fr := New("fr")
	assert.Equal(t, "En attente", fr.Status("pending"))
	assert.Equal(t, "Accepté", fr.Status("accepted"))
	assert.Equal(t, "Refusé", fr.Status("refused"))
	assert.Equal(t, "archived", fr.Status("archived"))
	assert.Equal(t, "", fr.Status(""))

	en := New("en")
	assert.Equal(t, "Pending", en.Status("pending"))
}

func TestNew_FallsBackToFrench(t *testing.T) {
	assert.Equal(t, "fr", New("").Locale())
	assert.Equal(t, "fr", New("not-a-locale!").Locale())
}
