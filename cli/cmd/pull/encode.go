package pull

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"sigs.k8s.io/yaml"
)

func encodeResults(output string, results []Result) (io.Reader, error) {
	var data []byte
	var err error
	switch output {
	case "json":
		data, err = encodeResultsAsNDJSON(results)
	case "yaml":
		data, err = encodeResultsAsYAML(results)
	case "table":
		data = encodeResultsAsTable(results)
	default:
		err = fmt.Errorf("unknown output format: %q", output)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding pull results as %q failed: %w", output, err)
	}
	return bytes.NewReader(data), nil
}

// encodeResultsAsNDJSON writes one JSON document per line and result.
func encodeResultsAsNDJSON(results []Result) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, res := range results {
		if err := encoder.Encode(res); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodeResultsAsYAML(results []Result) ([]byte, error) {
	if len(results) == 1 {
		return yaml.Marshal(results[0])
	}
	return yaml.Marshal(results)
}

func encodeResultsAsTable(results []Result) []byte {
	var buf bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.AppendHeader(table.Row{"Digest", "Status", "Size", "Media Type", "Path", "Duration"})
	for _, res := range results {
		location := res.Path
		if res.Status == StatusFailed {
			location = res.Error
		}
		t.AppendRow(table.Row{res.Digest, res.Status, res.Size, res.MediaType, location, res.Duration})
	}
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
	return buf.Bytes()
}
