package utils

import "testing"

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"São Paulo", "SAO PAULO"},
		{"  sao   paulo  ", "SAO PAULO"},
		{"BELO HORIZONTE", "BELO HORIZONTE"},
		{"curitiba\t pr", "CURITIBA PR"},
		{"BRASÍLIA", "BRASILIA"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := NormalizeName(c.in); got != c.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	once := NormalizeName("Três Corações")
	if twice := NormalizeName(once); twice != once {
		t.Errorf("second pass changed the value: %q -> %q", once, twice)
	}
}

func TestNormalizeInstrumentName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"clarineta", "CLARINETE"},
		{"Clarinete", "CLARINETE"},
		{"violoncelo", "VIOLONCELLO"},
		{"flauta  transversal", "FLAUTA"},
		{"sax", "SAXOFONE"},
		{"Violino", "VIOLINO"}, // no synonym entry, plain normalization
		{"órgão", "ORGAO"},
	}
	for _, c := range cases {
		if got := NormalizeInstrumentName(c.in); got != c.want {
			t.Errorf("NormalizeInstrumentName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
