// content-sniff prints the effective media type of files, stdin or URLs,
// as decided by the HTML content sniffing algorithm.
//
//	content-sniff [flags] FILE...
//	content-sniff --fetch URL...
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/italypaleale/content-sniffer-go/pkg/config"
	"github.com/italypaleale/content-sniffer-go/pkg/filetype"
	"github.com/italypaleale/content-sniffer-go/pkg/sniff"
	"github.com/italypaleale/content-sniffer-go/pkg/sniffhttp"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error {
	var (
		configPath string
		declared   string
		header     string
		uri        string
		fetch      bool
		verbose    bool
	)

	flagSet := pflag.NewFlagSet("content-sniff", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: $"+config.EnvVar+")")
	flagSet.StringVarP(&declared, "type", "t", "", "declared Content-Type of the inputs, with optional parameters")
	flagSet.StringVar(&header, "header", "", "raw Content-Type header value (default: the value of --type)")
	flagSet.StringVar(&uri, "uri", "", "URI of the resource (default: file:// URI of each input)")
	flagSet.BoolVar(&fetch, "fetch", false, "treat arguments as URLs and sniff the responses")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		fmt.Fprintf(stdout, "Usage: content-sniff [flags] FILE...\n\n%s", flagSet.FlagUsages())
		return nil
	}

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	logger := cfg.NewLogger(stderr)

	sniffer := sniff.New(&sniff.Options{
		Oracle: cfg.NewOracle(),
		Logger: logger,
	})

	inputs := flagSet.Args()
	if len(inputs) == 0 {
		if fetch {
			return errors.New("--fetch requires at least one URL")
		}
		inputs = []string{"-"}
	}

	if fetch {
		client := &http.Client{
			Transport: sniffhttp.NewTransport(nil, sniffer, logger),
		}
		for _, u := range inputs {
			sniffed, err := fetchOne(client, u)
			if err != nil {
				return fmt.Errorf("failed to fetch %s: %w", u, err)
			}
			fmt.Fprintf(stdout, "%s: %s\n", u, sniffed)
		}
		return nil
	}

	if header == "" {
		header = declared
	}
	req := sniff.Request{Header: header}
	if declared != "" {
		req.DeclaredType, req.Params, err = mime.ParseMediaType(declared)
		if err != nil {
			return fmt.Errorf("invalid --type: %w", err)
		}
	}

	for _, name := range inputs {
		res, err := sniffFile(sniffer, req, name, uri, stdin)
		if err != nil {
			return err
		}
		logger.Debug("Sniffed input", slog.String("input", name), slog.String("type", res.Type))
		fmt.Fprintf(stdout, "%s: %s\n", name, res)
	}
	return nil
}

func sniffFile(s sniff.Sniffer, req sniff.Request, name string, uri string, stdin io.Reader) (sniff.Result, error) {
	var r io.Reader
	if name == "-" {
		r = stdin
	} else {
		f, err := os.Open(name)
		if err != nil {
			return sniff.Result{}, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f

		if uri == "" {
			abs, err := filepath.Abs(name)
			if err == nil {
				uri = "file://" + filepath.ToSlash(abs)
			}
		}
	}

	sample, err := filetype.NewBuffer(r).Peek(s.RequiredSampleSize())
	if err != nil {
		return sniff.Result{}, fmt.Errorf("failed to read %s: %w", name, err)
	}

	req.URI = uri
	req.Sample = sample
	return s.Sniff(req), nil
}

func fetchOne(client *http.Client, u string) (string, error) {
	res, err := client.Get(u)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	return sniffhttp.SniffedType(res), nil
}
