package helpers

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		input  []error
		expect string
	}{
		{"nil", nil, ""},
		{"all-nil", []error{nil, nil}, ""},
		{"one", []error{nil, fmt.Errorf("till")}, "till"},
		{"many", []error{fmt.Errorf("till"), nil, fmt.Errorf("catalog")}, "till\ncatalog"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			err := FoldErrors(c.input)
			if c.expect == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, c.expect, err.Error())
		})
	}
}

func TestIntSecondDefault(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 3*time.Second, IntSecondDefault(0, 3*time.Second))
	assert.Equal(t, 60*time.Second, IntSecondDefault(60, 3*time.Second))
}
