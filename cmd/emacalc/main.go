package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ema_pricer/pkg/ema"
)

// emacalc прогоняет ряд цен через EMA и печатает траекторию:
//
//	emacalc --alpha 0.3 --input prices.csv --column 2
//	cat mids.txt | emacalc --period 5
func main() {
	v, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	in := io.Reader(os.Stdin)
	if path := v.GetString("input"); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, errors.Wrap(err, "open input"))
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	if err := run(v, in, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(args []string) (*viper.Viper, error) {
	fs := pflag.NewFlagSet("emacalc", pflag.ContinueOnError)
	fs.Float64("alpha", ema.DefaultAlpha, "smoothing factor in (0, 1]")
	fs.Int("period", 0, "EMA period N, overrides alpha with 2/(N+1)")
	fs.String("seed", "", "initial value, first price if empty")
	fs.String("input", "-", "price file, - for stdin")
	fs.Int("column", 0, "column index for CSV input")
	fs.String("sep", ",", "CSV separator")
	fs.Int("precision", 4, "digits after the point")
	fs.String("config", "", "optional config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("EMACALC")
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.Wrap(err, "bind flags")
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "read config")
		}
	}
	return v, nil
}

func newEstimator(v *viper.Viper) (*ema.Estimator, error) {
	alpha := v.GetFloat64("alpha")
	if n := v.GetInt("period"); n != 0 {
		a, err := ema.AlphaFromPeriod(n)
		if err != nil {
			return nil, err
		}
		alpha = a
	}

	var opts []ema.Option
	if s := strings.TrimSpace(v.GetString("seed")); s != "" {
		seed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Wrapf(ema.ErrInvalidParameter, "seed %q", s)
		}
		opts = append(opts, ema.WithSeed(seed))
	}
	return ema.New(alpha, opts...)
}

// run читает по цене на строку (или колонку CSV); плохие строки пропускает с предупреждением.
func run(v *viper.Viper, in io.Reader, out, warn io.Writer) error {
	est, err := newEstimator(v)
	if err != nil {
		return err
	}

	col := v.GetInt("column")
	sep := v.GetString("sep")
	prec := v.GetInt("precision")

	sc := bufio.NewScanner(in)
	line, n := 0, 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}

		field := raw
		if sep != "" && strings.Contains(raw, sep) {
			parts := strings.Split(raw, sep)
			if col < 0 || col >= len(parts) {
				fmt.Fprintf(warn, "line %d: no column %d\n", line, col)
				continue
			}
			field = strings.TrimSpace(parts[col])
		}

		price, err := strconv.ParseFloat(field, 64)
		if err != nil {
			// заголовок CSV или мусор
			fmt.Fprintf(warn, "line %d: skip %q\n", line, field)
			continue
		}
		value, err := est.Update(price)
		if err != nil {
			fmt.Fprintf(warn, "line %d: %v\n", line, err)
			continue
		}
		n++
		fmt.Fprintf(out, "%d\t%.*f\t%.*f\n", n, prec, price, prec, value)
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "read prices")
	}
	if n == 0 {
		return errors.Wrap(ema.ErrNotInitialized, "no valid prices")
	}
	return nil
}
