package state

import (
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/MatheusdoNAm/AutoAtendimento/helpers"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/catalog"
	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	tele_config "github.com/MatheusdoNAm/AutoAtendimento/tele/config"
	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Till struct {
		Persist     bool            `hcl:"persist"`
		XXX_Initial []InitialConfig `hcl:"initial"`
	} `hcl:"till"`
	Catalog struct {
		Persist      bool            `hcl:"persist"`
		XXX_Products []ProductConfig `hcl:"product"`
	} `hcl:"catalog"`
	Ledger struct {
		DatabaseURL string `hcl:"database_url"` // secret
		RedisAddr   string `hcl:"redis_addr"`
		RedisKey    string `hcl:"redis_key"`
	} `hcl:"ledger"`
	Persist struct {
		Root string `hcl:"root"`
	} `hcl:"persist"`
	Tele   tele_config.Config `hcl:"tele"`
	Events struct {
		KafkaBrokers []string `hcl:"kafka_brokers"`
		KafkaTopic   string   `hcl:"kafka_topic"`
	} `hcl:"events"`
	HTTP struct {
		Listen      string `hcl:"listen"`
		JwtSecret   string `hcl:"jwt_secret"` // secret
		TokenTTLSec int    `hcl:"token_ttl_sec"`
	} `hcl:"http"`

	UI struct {
		Service struct {
			Auth struct {
				Enable bool `hcl:"enable"`
				// bcrypt hashes
				Passwords []string `hcl:"passwords"`
			} `hcl:"auth"`
		} `hcl:"service"`
	} `hcl:"ui"`

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

// till { initial "0.50" { count = 10 } }
type InitialConfig struct {
	Nominal string `hcl:"nominal,key"`
	Count   int    `hcl:"count"`
}

// catalog { product "1" { name = "coxinha" price = "6.50" } }
type ProductConfig struct {
	Code       string `hcl:"code,key"`
	Name       string `hcl:"name"`
	Kind       string `hcl:"kind"`
	Price      string `hcl:"price"`
	ValidUntil string `hcl:"valid_until"`
	Stock      int    `hcl:"stock"`
}

func (pc *ProductConfig) Product() (catalog.Product, error) {
	code, err := strconv.Atoi(pc.Code)
	if err != nil {
		return catalog.Product{}, errors.NotValidf("config catalog product=%s code", pc.Code)
	}
	price, err := currency.ParseAmount(pc.Price)
	if err != nil {
		return catalog.Product{}, errors.Annotatef(err, "config catalog product=%s price", pc.Code)
	}
	p := catalog.Product{Code: code, Name: pc.Name, Kind: pc.Kind, Price: price}
	if pc.ValidUntil != "" {
		t, err := time.ParseInLocation(catalog.DateLayout, pc.ValidUntil, time.Local)
		if err != nil {
			return p, errors.Annotatef(err, "config catalog product=%s valid_until", pc.Code)
		}
		p.ValidUntil = &t
	}
	return p, nil
}

func (c *Config) TillInitial(valid []currency.Nominal) (*currency.NominalGroup, error) {
	g := currency.NewNominalGroup(valid)
	errs := make([]error, 0)
	for _, ic := range c.Till.XXX_Initial {
		n, err := currency.ParseNominal(ic.Nominal, valid)
		if err == nil && ic.Count < 0 {
			err = errors.NotValidf("count=%d", ic.Count)
		}
		if err == nil {
			err = g.Add(n, uint(ic.Count))
		}
		if err != nil {
			errs = append(errs, errors.Annotatef(err, "config till initial=%s", ic.Nominal))
		}
	}
	return g, helpers.FoldErrors(errs)
}

func (c *Config) Products() []ProductConfig { return c.Catalog.XXX_Products }

func (c *Config) TokenTTL() time.Duration {
	return helpers.IntSecondDefault(c.HTTP.TokenTTLSec, 12*time.Hour)
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		log.Fatalf("config duplicate source=%s", source.Name)
	} else {
		log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	}
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		if err := osfs.SetBase(dir); err != nil {
			return nil, err
		}
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
