// Operator console for the till: cash counts, change, sales and reports.
package till_cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/cmd/canteen/subcmd"
	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/MatheusdoNAm/AutoAtendimento/helpers/cli"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/catalog"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/order"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/payment"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/state"
	"github.com/c-bata/go-prompt"
	"github.com/juju/errors"
)

const modName = "till"

var Mod = subcmd.Mod{Name: modName, Usage: "interactive till console", Main: Main}

const usage = `syntax: one command per line, amounts as decimal text
(till)
- deposit NOMINAL COUNT    add notes or coins
- withdraw NOMINAL COUNT   remove notes or coins
- count NOMINAL            show count of one nominal
- total                    show cash total
- dump                     show all counts
- change AMOUNT            take change for AMOUNT out of the till
- reset                    set all counts to zero
(sale)
- stock                    list products
- pay METHOD CODE:QTY... [tender NOMINAL:COUNT...]
                           METHOD is cash, card or pix
- report tx|sales [FROM [TO]]  days as YYYY-MM-DD, default today
- report expiry [DAY]      dated products and their status as of DAY
`

var commands = []prompt.Suggest{
	{Text: "deposit"}, {Text: "withdraw"}, {Text: "count"}, {Text: "total"}, {Text: "dump"},
	{Text: "change"}, {Text: "reset"}, {Text: "stock"}, {Text: "pay"}, {Text: "report"}, {Text: "help"},
}

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	defer g.Close()
	g.Log.Debugf("till init complete, running")

	con := newConsole(ctx, os.Stdout)
	cli.MainLoop(modName, con.exec, con.complete, g.Close)
	return nil
}

type console struct {
	ctx context.Context
	g   *state.Global
	out io.Writer
}

func newConsole(ctx context.Context, out io.Writer) *console {
	return &console{ctx: ctx, g: state.GetGlobal(ctx), out: out}
}

func (self *console) complete(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	return prompt.FilterHasPrefix(commands, d.GetWordBeforeCursor(), true)
}

func (self *console) exec(line string) {
	if err := self.run(line); err != nil {
		self.g.Log.Debugf("till command=%q err=%s", line, errors.ErrorStack(err))
		fmt.Fprintf(self.out, "error: %v\n", err)
	}
}

func (self *console) printf(format string, args ...interface{}) {
	fmt.Fprintf(self.out, format+"\n", args...)
}

func (self *console) run(line string) error {
	words := strings.Fields(line)
	if len(words) == 0 {
		return nil
	}
	cmd, args := words[0], words[1:]
	t := self.g.Till
	switch cmd {
	case "help":
		fmt.Fprint(self.out, usage)
		return nil

	case "deposit", "withdraw":
		if len(args) != 2 {
			return errors.NotValidf("usage: %s NOMINAL COUNT", cmd)
		}
		n, err := currency.ParseNominal(args[0], t.Nominals())
		if err != nil {
			return err
		}
		count, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.NewNotValid(err, "count")
		}
		if cmd == "deposit" {
			err = t.Deposit(n, count)
		} else {
			err = t.Withdraw(n, count)
		}
		if err != nil {
			return err
		}
		self.store()
		self.printf("%s x%d = %d total=%s", currency.Amount(n).Format100I(), count, t.Count(n), t.Total().Format100I())
		return nil

	case "count":
		if len(args) != 1 {
			return errors.NotValidf("usage: count NOMINAL")
		}
		n, err := currency.ParseNominal(args[0], t.Nominals())
		if err != nil {
			return err
		}
		self.printf("%s = %d", currency.Amount(n).Format100I(), t.Count(n))
		return nil

	case "total":
		self.printf("total=%s", t.Total().Format100I())
		return nil

	case "dump":
		snap := t.Snapshot()
		for _, n := range t.Nominals() {
			c, _ := snap.Get(n)
			self.printf("%7s = %d", currency.Amount(n).Format100I(), c)
		}
		self.printf("total=%s", snap.Total().Format100I())
		return nil

	case "change":
		if len(args) != 1 {
			return errors.NotValidf("usage: change AMOUNT")
		}
		amount, err := currency.ParseAmount(args[0])
		if err != nil {
			return err
		}
		change, err := t.MakeChange(amount)
		if err != nil {
			return err
		}
		self.store()
		self.printf("change=%s %s", change.Total().Format100I(), formatGroup(change.ToMap()))
		return nil

	case "reset":
		t.Reset()
		self.store()
		self.printf("total=%s", t.Total().Format100I())
		return nil

	case "stock":
		now := time.Now()
		for _, item := range self.g.Catalog.List() {
			expired := ""
			if item.Expired(now) {
				expired = " expired"
			}
			self.printf("%d %s price=%s stock=%d%s", item.Code, item.Name, item.Price.Format100I(), item.Stock, expired)
		}
		return nil

	case "pay":
		return self.pay(args)

	case "report":
		return self.report(args)
	}
	return errors.NotValidf("command=%s, try help", cmd)
}

func (self *console) store() {
	if err := self.g.Till.Store(); err != nil {
		self.g.Log.Errorf("till store err=%v", err)
	}
}

func (self *console) pay(args []string) error {
	if len(args) < 2 {
		return errors.NotValidf("usage: pay METHOD CODE:QTY... [tender NOMINAL:COUNT...]")
	}
	req := payment.Request{Method: order.Method(args[0]), Cart: make(catalog.Cart)}
	tender := false
	for _, arg := range args[1:] {
		if arg == "tender" {
			tender = true
			req.Tendered = make(map[currency.Nominal]uint)
			continue
		}
		left, count, err := splitPair(arg)
		if err != nil {
			return err
		}
		if tender {
			a, err := currency.ParseAmount(left)
			if err != nil {
				return err
			}
			req.Tendered[currency.Nominal(a)] += uint(count)
		} else {
			code, err := strconv.Atoi(left)
			if err != nil {
				return errors.NewNotValid(err, "product code")
			}
			req.Cart[code] += count
		}
	}
	r, err := self.g.Checkout.Pay(self.ctx, req)
	if err != nil {
		return err
	}
	for _, l := range r.Lines {
		self.printf("  %d %s x%d %s", l.Code, l.Name, l.Qty, l.Total().Format100I())
	}
	self.printf("order=%d method=%s total=%s tendered=%s change=%s %s",
		r.Number, r.Method, r.Total.Format100I(), r.Tendered.Format100I(), r.ChangeAmount.Format100I(), formatGroup(r.Change))
	return nil
}

func (self *console) report(args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return errors.NotValidf("usage: report tx|sales [FROM [TO]] | report expiry [DAY]")
	}
	now := time.Now()
	days := []time.Time{now, now}
	for i, s := range args[1:] {
		d, err := time.ParseInLocation(catalog.DateLayout, s, time.Local)
		if err != nil {
			return errors.NewNotValid(err, "report day")
		}
		days[i] = d
		if len(args) == 2 {
			days[1] = d
		}
	}
	switch args[0] {
	case "tx":
		r, err := self.g.Ledger.Transactions(self.ctx, days[0], days[1])
		if err != nil {
			return err
		}
		for _, row := range r.Rows {
			self.printf("%d %s %s %s", row.Number, row.Time.Local().Format("2006-01-02 15:04"), row.Method, row.Total.Format100I())
		}
		self.printf("orders=%d total=%s", len(r.Rows), r.Total.Format100I())
	case "sales":
		r, err := self.g.Ledger.ProductSales(self.ctx, days[0], days[1])
		if err != nil {
			return err
		}
		for _, row := range r.Rows {
			self.printf("%d %s x%d %s", row.Code, row.Name, row.Qty, row.Revenue.Format100I())
		}
		self.printf("total=%s", r.Total.Format100I())
	case "expiry":
		if len(args) > 2 {
			return errors.NotValidf("usage: report expiry [DAY]")
		}
		rows := self.g.Catalog.ExpiryReport(days[0])
		for _, row := range rows {
			self.printf("%d %s %s %s", row.Code, row.Name, row.ValidUntil.Format(catalog.DateLayout), row.Status)
		}
		self.printf("products=%d", len(rows))
	default:
		return errors.NotValidf("report kind=%s", args[0])
	}
	return nil
}

// splitPair reads "X:N", plain "X" means N=1.
func splitPair(s string) (string, int, error) {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return s, 1, nil
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil || n <= 0 {
		return "", 0, errors.NotValidf("count in %q", s)
	}
	return s[:i], n, nil
}

func formatGroup(m map[currency.Nominal]uint) string {
	g := currency.NewNominalGroup(currency.CanteenNominals)
	for n, c := range m {
		if c != 0 {
			_ = g.Add(n, c)
		}
	}
	return g.String()
}
