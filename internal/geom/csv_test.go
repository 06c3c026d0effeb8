package geom

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"kmlgen/internal/apperr"
)

func TestReadTableCSV(t *testing.T) {
	p := filepath.Join(t.TempDir(), "wells.csv")
	if err := os.WriteFile(p, []byte("Name,Lat,Lon\nW1,55.1,37.1\nW2,55.2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rows, err := ReadTable(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 3 || len(rows[2]) != 2 {
		t.Errorf("Expected ragged rows to be kept, got %v", rows)
	}
}

func TestReadCSVDelimiters(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"semicolon", "Название;Lat;Lon\nКолодец1;55,75;37,61\n", []string{"Колодец1", "55,75", "37,61"}},
		{"tab", "Name\tLat\tLon\nW1\t55.1\t37.1\n", []string{"W1", "55.1", "37.1"}},
		{"quoted comma", "\"Name, full\",Lat,Lon\n\"W, 1\",55.1,37.1\n", []string{"W, 1", "55.1", "37.1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ReadCSV(strings.NewReader(tt.in))
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if len(rows) != 2 || strings.Join(rows[1], "|") != strings.Join(tt.want, "|") {
				t.Errorf("Expected %v, got %v", tt.want, rows)
			}
			if len(rows[0]) != 3 {
				t.Errorf("Expected 3 header columns, got %v", rows[0])
			}
		})
	}
}

func TestReadCSVEmpty(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); !errors.Is(err, apperr.ErrParse) {
		t.Errorf("Expected ErrParse, got %v", err)
	}
}

func TestReadTableXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_ = f.SetSheetRow("Sheet1", "A1", &[]any{"Название", "Latitude", "Longitude"})
	_ = f.SetSheetRow("Sheet1", "A2", &[]any{"Колодец1", 55.5, 37.5})
	p := filepath.Join(t.TempDir(), "wells.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatal(err)
	}
	rows, err := ReadTable(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "Колодец1" || rows[1][1] != "55.5" {
		t.Errorf("unexpected rows %v", rows)
	}
}

func TestReadTableUnsupported(t *testing.T) {
	if _, err := ReadTable("wells.ods"); !errors.Is(err, apperr.ErrParse) {
		t.Errorf("Expected ErrParse, got %v", err)
	}
}
