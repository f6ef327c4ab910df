package wallet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// csvHeader is the pinned column order of the wallet CSV. Files written by
// other tooling against this format rely on it; do not change it.
var csvHeader = []string{"name", "address", "private_key"}

// LoadCSV reads a wallet table from the CSV file at path. The header row is
// required and must carry the pinned columns.
func LoadCSV(path string) ([]Wallet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wallets csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var wallets []Wallet
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}

		wallets = append(wallets, Wallet{
			Name:       record[0],
			Address:    record[1],
			PrivateKey: record[2],
		})
	}

	return wallets, nil
}

// WriteCSV writes the wallet table to path in the fixed column order,
// overwriting any existing file.
func WriteCSV(path string, wallets []Wallet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wallets csv: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, wallet := range wallets {
		if err := w.Write([]string{wallet.Name, wallet.Address, wallet.PrivateKey}); err != nil {
			f.Close()
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush wallets csv: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close wallets csv: %w", err)
	}
	return nil
}

func checkHeader(header []string) error {
	if len(header) != len(csvHeader) {
		return fmt.Errorf("wallets csv has %d columns, want %d (%s)", len(header), len(csvHeader), strings.Join(csvHeader, ","))
	}
	for i, column := range csvHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), column) {
			return fmt.Errorf("wallets csv column %d is %q, want %q", i, header[i], column)
		}
	}
	return nil
}
