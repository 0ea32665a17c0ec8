package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"
	errors "gopkg.in/src-d/go-errors.v1"
	yaml "gopkg.in/yaml.v2"

	datasource "github.com/chartdata/go-datasource"
	"github.com/chartdata/go-datasource/csvsource"
	"github.com/chartdata/go-datasource/sqlsource"
)

var (
	// ErrConfig is returned for unreadable or invalid configuration files.
	ErrConfig = errors.NewKind("cannot load configuration %q: %s")
	// ErrSource is returned when a source entry cannot be turned into a
	// provider.
	ErrSource = errors.NewKind("source %q: %s")
)

// config is the YAML configuration of the daemon: the listen address and
// one source entry per endpoint.
type config struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout duration      `yaml:"request_timeout"`
	Sources        []sourceEntry `yaml:"sources"`
}

// duration decodes YAML strings like "30s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// sourceEntry describes one table source. Type selects the provider:
// "csv" reads Path into memory, "sql" opens Driver with DSN and serves
// Table. A "${PASSWORD}" placeholder in the DSN is filled from an
// interactive prompt.
type sourceEntry struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Path    string `yaml:"path"`
	MaxRows int    `yaml:"max_rows"`
	Driver  string `yaml:"driver"`
	DSN     string `yaml:"dsn"`
	Table   string `yaml:"table"`
}

const passwordPlaceholder = "${PASSWORD}"

func loadConfig(path string) (*config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrConfig.New(path, err)
	}
	var cfg config
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return nil, ErrConfig.New(path, err)
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	return &cfg, nil
}

// buildProvider turns a source entry into a data provider.
func buildProvider(src sourceEntry) (datasource.DataProvider, error) {
	switch src.Type {
	case "csv":
		var opts []csvsource.Option
		if src.MaxRows > 0 {
			opts = append(opts, csvsource.WithMaxRows(src.MaxRows))
		}
		table, err := csvsource.ReadFile(src.Path, opts...)
		if err != nil {
			return nil, ErrSource.New(src.Name, err)
		}
		return csvsource.NewProvider(table), nil
	case "sql":
		dialect, err := sqlsource.ParseDialect(src.Driver)
		if err != nil {
			return nil, ErrSource.New(src.Name, err)
		}
		dsn := src.DSN
		if strings.Contains(dsn, passwordPlaceholder) {
			password, err := askPassword(src.Name)
			if err != nil {
				return nil, ErrSource.New(src.Name, err)
			}
			dsn = strings.ReplaceAll(dsn, passwordPlaceholder, password)
		}
		db, err := sql.Open(src.Driver, dsn)
		if err != nil {
			return nil, ErrSource.New(src.Name, err)
		}
		return sqlsource.NewProvider(db, src.Table, dialect), nil
	}
	return nil, ErrSource.New(src.Name, fmt.Sprintf("unknown source type %q", src.Type))
}

func askPassword(name string) (string, error) {
	fmt.Fprintf(os.Stderr, "password for source %s: ", name)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(password), nil
}
