package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"forgedex/internal/chain"
	"forgedex/internal/config"
	"forgedex/internal/xvm"
)

type decodedRecord struct {
	Line     int           `json:"line,omitempty"`
	Key      string        `json:"key,omitempty"`
	Value    any           `json:"value"`
	Metadata *xvm.Metadata `json:"metadata,omitempty"`
}

type decodeError struct {
	Line  int    `json:"line,omitempty"`
	Key   string `json:"key,omitempty"`
	Error string `json:"error"`
}

type decodeStats struct {
	total, decoded, partial, failed int
}

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" && cfg.Contract == "" {
		return fmt.Errorf("input path or contract is required")
	}
	if cfg.Contract != "" && len(cfg.Keys) == 0 {
		return fmt.Errorf("at least one key is required with contract")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outWriter, err := newJSONLWriter(cfg.Out, false)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	errWriter, err := newJSONLWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	decoder := xvm.Decoder{PreserveTypes: cfg.PreserveTypes}

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("contract", cfg.Contract),
		zap.Int("keys", len(cfg.Keys)),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Bool("preserve_types", cfg.PreserveTypes),
	)

	var stats decodeStats
	if cfg.Contract != "" {
		daemon, err := chain.NewClient(ctx, cfg.Node)
		if err != nil {
			return fmt.Errorf("connect node: %w", err)
		}
		defer daemon.Close()
		stats, err = decodeContract(ctx, daemon, cfg.Contract, cfg.Keys, decoder, outWriter, errWriter)
		if err != nil {
			return err
		}
	} else {
		inputFile, err := os.Open(cfg.In)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer inputFile.Close()
		stats, err = decodeLines(inputFile, decoder, outWriter, errWriter)
		if err != nil {
			return err
		}
	}

	logger.Info("decode complete",
		zap.Int("total", stats.total),
		zap.Int("decoded", stats.decoded),
		zap.Int("partial", stats.partial),
		zap.Int("failed", stats.failed),
	)

	return nil
}

// decodeLines renders one typed value per input line. Values decoded with
// problems are still written, with their metadata attached.
func decodeLines(r io.Reader, decoder xvm.Decoder, out, errs *jsonlWriter) (decodeStats, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var stats decodeStats
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.total++

		value, meta, err := decoder.Decode(line)
		if err != nil {
			stats.failed++
			writeDecodeError(errs, decodeError{Line: lineNo, Error: err.Error()})
			continue
		}
		if err := out.Write(newDecodedRecord(lineNo, "", value, meta)); err != nil {
			return stats, err
		}
		stats.count(meta)
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}
	return stats, nil
}

type contractReader interface {
	GetContractData(ctx context.Context, contract string, key any) (chain.ContractData, error)
}

// decodeContract reads each storage key from the daemon. Keys that parse as
// hashes are sent as Hash values, anything else as a string.
func decodeContract(ctx context.Context, daemon contractReader, contract string, keys []string, decoder xvm.Decoder, out, errs *jsonlWriter) (decodeStats, error) {
	var stats decodeStats
	for _, key := range keys {
		stats.total++
		var param any
		if hash, err := chain.ParseHash(key); err == nil {
			param = xvm.HashParam(hash)
		} else {
			param = xvm.Param(xvm.StringValue(key))
		}

		data, err := daemon.GetContractData(ctx, contract, param)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.failed++
			writeDecodeError(errs, decodeError{Key: key, Error: err.Error()})
			continue
		}
		if err := out.Write(newDecodedRecord(0, key, decoder.Render(data.Data), data.Metadata)); err != nil {
			return stats, err
		}
		stats.count(data.Metadata)
	}
	return stats, nil
}

func newDecodedRecord(line int, key string, value any, meta xvm.Metadata) decodedRecord {
	rec := decodedRecord{Line: line, Key: key, Value: value}
	if !meta.Empty() {
		rec.Metadata = &meta
	}
	return rec
}

func (s *decodeStats) count(meta xvm.Metadata) {
	if meta.Empty() {
		s.decoded++
	} else {
		s.partial++
	}
}

type jsonlWriter struct {
	file   *os.File
	writer *bufio.Writer
}

func newJSONLWriter(path string, appendMode bool) (*jsonlWriter, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &jsonlWriter{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (w *jsonlWriter) Write(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}

func (w *jsonlWriter) Close() error {
	if w == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

func writeDecodeError(writer *jsonlWriter, errRecord decodeError) {
	if writer == nil {
		return
	}
	_ = writer.Write(errRecord)
}
