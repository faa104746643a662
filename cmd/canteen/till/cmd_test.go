package till_cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	state_new "github.com/MatheusdoNAm/AutoAtendimento/internal/state/new"
	"github.com/c-bata/go-prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const config = `
till { initial "1" { count = 5 } initial "0.25" { count = 4 } }
catalog {
	product "1" { name = "coxinha" price = "6.50" stock = 3 }
	product "2" { name = "bolo" price = "4.00" stock = 2 valid_until = "2099-12-31" }
}`

func TestConsole(t *testing.T) {
	t.Parallel()

	type Case struct {
		name   string
		lines  []string
		expect []string
		check  func(testing.TB, *console)
	}
	cases := []Case{
		{"empty", []string{"", "   "}, nil, nil},
		{"help", []string{"help"}, []string{"deposit NOMINAL COUNT"}, nil},
		{"deposit", []string{"deposit 2.00 3", "count 2"},
			[]string{"2.00 x3 = 3 total=12.00", "2.00 = 3"},
			func(t testing.TB, con *console) {
				assert.Equal(t, 3, con.g.Till.Count(200))
			}},
		{"withdraw-too-many", []string{"withdraw 1 6"},
			[]string{"error: till.withdraw n=1.00 count=6 stored=5: insufficient denomination stock"},
			func(t testing.TB, con *console) {
				assert.Equal(t, currency.Amount(600), con.g.Till.Total())
			}},
		{"unrecognized", []string{"deposit 0.30 1"}, []string{"error: ", "nominal is not valid"}, nil},
		{"change", []string{"change 1.48", "dump"},
			[]string{"change=1.50 1.00:1,0.25:2,total:1.50", "   1.00 = 4", "   0.25 = 2", "total=4.50"}, nil},
		{"change-infeasible", []string{"change 7", "total"},
			[]string{"error: ", "insufficient change", "total=6.00"}, nil},
		{"reset", []string{"reset", "reset"}, []string{"total=0.00"}, nil},
		{"stock", []string{"stock"}, []string{"1 coxinha price=6.50 stock=3"}, nil},
		{"pay-cash", []string{"pay cash 1 tender 5.00 2.00", "report sales", "report tx"},
			[]string{"  1 coxinha x1 6.50", "order=1 method=cash total=6.50 tendered=7.00 change=0.50 0.25:2,total:0.50",
				"1 coxinha x1 6.50", "orders=1 total=6.50"},
			func(t testing.TB, con *console) {
				assert.Equal(t, 2, con.g.Catalog.Available(1))
				assert.Equal(t, currency.Amount(600-50+700), con.g.Till.Total())
			}},
		{"pay-card-qty", []string{"pay card 1:2"}, []string{"order=1 method=card total=13.00"}, nil},
		{"pay-bad", []string{"pay cash 1:x", "pay cheque 1", "pay cash 1 tender 1.00"},
			[]string{"error: count in \"1:x\" not valid", "unknown payment method", "tendered amount less than due"}, nil},
		{"report-expiry", []string{"report expiry", "report expiry 2099-12-31", "report expiry 2100-01-01", "report expiry 2099-01-01 2099-02-01"},
			[]string{"2 bolo 2099-12-31 valid", "products=1", "2 bolo 2099-12-31 expires_today", "2 bolo 2099-12-31 expired",
				"error: usage: report expiry [DAY] not valid"}, nil},
		{"report-bad", []string{"report tx 2026-13-01", "report stats"}, []string{"error: report day", "report kind=stats not valid"}, nil},
		{"unknown", []string{"dance"}, []string{"error: command=dance, try help not valid"}, nil},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			ctx, _ := state_new.NewTestContext(t, "test", config)
			var out bytes.Buffer
			con := newConsole(ctx, &out)
			for _, line := range c.lines {
				con.exec(line)
			}
			s := out.String()
			for _, e := range c.expect {
				assert.Contains(t, s, e)
			}
			if len(c.expect) == 0 {
				assert.Equal(t, "", strings.TrimSpace(s))
			}
			if c.check != nil {
				c.check(t, con)
			}
		})
	}
}

func TestConsoleComplete(t *testing.T) {
	t.Parallel()
	ctx, _ := state_new.NewTestContext(t, "test", "")
	con := newConsole(ctx, &bytes.Buffer{})
	buf := prompt.NewBuffer()
	buf.InsertText("de", false, true)
	s := con.complete(*buf.Document())
	require.Len(t, s, 1)
	assert.Equal(t, "deposit", s[0].Text)

	buf.InsertText("posit 1", false, true)
	assert.Nil(t, con.complete(*buf.Document()))
}

func TestSplitPair(t *testing.T) {
	t.Parallel()
	s, n, err := splitPair("20.00:3")
	require.NoError(t, err)
	assert.Equal(t, "20.00", s)
	assert.Equal(t, 3, n)
	s, n, err = splitPair("7")
	require.NoError(t, err)
	assert.Equal(t, "7", s)
	assert.Equal(t, 1, n)
	_, _, err = splitPair("7:0")
	assert.Error(t, err)
}
