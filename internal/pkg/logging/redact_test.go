package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactEmail(t *testing.T) {
	cases := map[string]string{
		"alexander@northeastern.edu": "al****@northeastern.edu",
		"  bob@x.edu ":               "bo****@x.edu",
		"ab@x.edu":                   "ab@x.edu",
		"no-at":                      "no-at",
		"@x.edu":                     "@x.edu",
		"trailing@":                  "trailing@",
		"":                           "",
		"éèêë@x.edu":                 "éè****@x.edu",
	}
	for in, want := range cases {
		assert.Equal(t, want, RedactEmail(in), in)
	}
}
