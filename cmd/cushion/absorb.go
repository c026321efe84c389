package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/jhlee0409/cushion/internal/pkg/logger"
)

var absorbCmd = &cobra.Command{
	Use:   "absorb [file]",
	Short: "Absorb a JSON document through the cushion matching --url",
	Long: `Read a JSON document from file (or stdin when omitted or "-"), run it
through the cushion that governs --url exactly as the proxy would, and print
the result. --set path=value edits the output afterwards.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAbsorb,
}

func setupAbsorbCmd() {
	rootCmd.AddCommand(absorbCmd)

	absorbCmd.Flags().String("url", "", "request URL used to select the cushion")
	absorbCmd.Flags().StringArray("set", nil, "path=value edit applied to the output (repeatable)")
	absorbCmd.Flags().Bool("pretty", false, "indent the output")
	absorbCmd.MarkFlagRequired("url")
}

func runAbsorb(cmd *cobra.Command, args []string) error {
	log, err := logger.NewStderr(viper.GetString("log.level"))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	rawURL, _ := cmd.Flags().GetString("url")
	sets, _ := cmd.Flags().GetStringArray("set")
	pretty, _ := cmd.Flags().GetBool("pretty")

	input, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("input is not valid JSON")
	}

	c, err := newCushion(log)
	if err != nil {
		return err
	}
	if _, _, ok := c.Lookup(rawURL); !ok {
		return fmt.Errorf("no cushion matches %s", rawURL)
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	resp, err := c.Transport(staticTransport{body: input}).RoundTrip(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read absorbed body: %w", err)
	}

	for _, set := range sets {
		if out, err = applySet(out, set); err != nil {
			return err
		}
	}
	if pretty {
		out = []byte(gjson.GetBytes(out, "@pretty").Raw)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(out), "\n"))
	return err
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

// applySet writes value at path. Values that parse as JSON are inserted
// raw, anything else as a string.
func applySet(doc []byte, set string) ([]byte, error) {
	path, value, ok := strings.Cut(set, "=")
	if !ok || path == "" {
		return nil, fmt.Errorf("invalid --set %q, want path=value", set)
	}

	var (
		out []byte
		err error
	)
	if gjson.Valid(value) {
		out, err = sjson.SetRawBytes(doc, path, []byte(value))
	} else {
		out, err = sjson.SetBytes(doc, path, value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set %s: %w", path, err)
	}
	return out, nil
}

// staticTransport answers every request with a 200 JSON response carrying
// body.
type staticTransport struct {
	body []byte
}

func (t staticTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": []string{"application/json"}},
		Body:          io.NopCloser(bytes.NewReader(t.body)),
		ContentLength: int64(len(t.body)),
		Request:       req,
	}, nil
}
