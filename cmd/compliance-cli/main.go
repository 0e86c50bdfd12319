package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities"
)

const defaultBase = "http://localhost:8080/v1"

type command struct {
	method string
	path   string // :n placeholders take positional args in order
	body   bool
	help   string
}

var commands = map[string]command{
	"investigation-open":        {http.MethodPost, "/investigations", true, "open an investigation"},
	"investigation-get":         {http.MethodGet, "/investigations/:id", false, "show an investigation"},
	"investigation-share":       {http.MethodPost, "/investigations/:id/shares", true, "reveal a trustee share"},
	"investigation-reconstruct": {http.MethodPost, "/investigations/:id/reconstruct", true, "reconstruct the key"},
	"request-create":            {http.MethodPost, "/proof-requests", true, "create a proof request"},
	"request-get":               {http.MethodGet, "/proof-requests/:address", false, "show a proof request"},
	"request-proof":             {http.MethodPost, "/proof-requests/:address/proof", true, "submit a proof"},
	"request-verify":            {http.MethodPost, "/proof-requests/:address/verify", false, "verify the submitted proof"},
	"proof-input":               {http.MethodPost, "/proof-inputs", true, "build a prover input"},
}

func main() {
	_ = utilities.LoadEnv()
	base := utilities.EnvOrDefault("API_BASE", defaultBase)
	if err := run(os.Args[1:], base, http.DefaultClient, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			usage(os.Stderr)
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func run(args []string, base string, client *http.Client, stdin io.Reader, out io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	data := fs.String("d", "", "request JSON body, '-' reads stdin")
	positional, err := parseInterleaved(fs, args[1:])
	if err != nil {
		return fmt.Errorf("%v: %w", err, errUsage)
	}

	path, err := expand(cmd.path, positional)
	if err != nil {
		return err
	}

	var body io.Reader
	switch {
	case !cmd.body:
	case *data == "-":
		body = stdin
	case *data != "":
		body = bytes.NewBufferString(*data)
	}
	return do(client, cmd.method, strings.TrimRight(base, "/")+path, body, out)
}

// parseInterleaved accepts flags before or after positional arguments.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func expand(template string, args []string) (string, error) {
	parts := strings.Split(template, "/")
	used := 0
	for i, p := range parts {
		if !strings.HasPrefix(p, ":") {
			continue
		}
		if used == len(args) {
			return "", fmt.Errorf("missing <%s>: %w", p[1:], errUsage)
		}
		parts[i] = args[used]
		used++
	}
	if used != len(args) {
		return "", fmt.Errorf("unexpected arguments %v: %w", args[used:], errUsage)
	}
	return strings.Join(parts, "/"), nil
}

func do(client *http.Client, method, url string, body io.Reader, out io.Writer) error {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	fmt.Fprintf(out, "→ %s %s\n", method, url)
	fmt.Fprintf(out, "← %d %s\n\n", res.StatusCode, http.StatusText(res.StatusCode))
	_, err = io.Copy(out, res.Body)
	fmt.Fprintln(out)
	return err
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: compliance-cli <command> [args] [-d '<json>' | -d -]\n\nCommands:")
	for _, name := range slices.Sorted(maps.Keys(commands)) {
		c := commands[name]
		fmt.Fprintf(w, "  %-26s %-6s %-34s %s\n", name, c.method, c.path, c.help)
	}
	fmt.Fprintln(w, "\nEnvironment:\n  API_BASE   override default "+defaultBase)
}
