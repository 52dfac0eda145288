package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/NerdMeNot/listsim"
)

type fileFormat int

const (
	formatParquet fileFormat = iota
	formatIPC
	formatJSON
	formatNDJSON
)

// formatOf picks the file format from the extension
func formatOf(path string) (fileFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return formatParquet, nil
	case ".arrow", ".ipc":
		return formatIPC, nil
	case ".json":
		return formatJSON, nil
	case ".ndjson", ".jsonl":
		return formatNDJSON, nil
	default:
		return 0, fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
}

func readFrame(path string) (*listsim.DataFrame, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case formatParquet:
		return listsim.ReadParquet(path)
	case formatIPC:
		return listsim.ReadIPC(path)
	case formatNDJSON:
		return listsim.ReadJSON(path, listsim.JSONReadOptions{Format: listsim.JSONLines})
	default:
		return listsim.ReadJSON(path)
	}
}

// scanFrame opens path lazily so only the referenced columns are read
func scanFrame(path string) (*listsim.LazyFrame, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case formatParquet:
		return listsim.ScanParquet(path), nil
	case formatIPC:
		return listsim.ScanIPC(path), nil
	case formatNDJSON:
		return listsim.ScanJSON(path, listsim.JSONReadOptions{Format: listsim.JSONLines}), nil
	default:
		return listsim.ScanJSON(path), nil
	}
}

func writeFrame(df *listsim.DataFrame, path string) error {
	format, err := formatOf(path)
	if err != nil {
		return err
	}
	switch format {
	case formatParquet:
		return df.WriteParquet(path)
	case formatIPC:
		return df.WriteIPC(path)
	case formatNDJSON:
		return df.WriteJSON(path, listsim.JSONWriteOptions{Format: listsim.JSONLines})
	default:
		return df.WriteJSON(path)
	}
}
