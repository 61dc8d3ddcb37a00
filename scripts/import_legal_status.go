package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
)

// Importador del cuaderno de vencimientos. Reads the office CSV export
// (plate + legal expiry dates in DD/MM/YYYY) and replays each date through
// the maintenance-log API so the keyword routing fills fleet_legal_status
// exactly the way a workshop entry would.
//
// CSV columns: matricula, itv, tacografo, atp. Empty cells are skipped.

const defaultServiceURL = "http://localhost:8080"

type csvRow struct {
	Plate string
	ITV   string
	Tacho string
	ATP   string
}

type logPayload struct {
	Plate                string `json:"plate"`
	KmAtService          int    `json:"km_at_service"`
	Category             string `json:"category"`
	Description          string `json:"description"`
	InterventionTypeName string `json:"intervention_type_name"`
	NewExpiryDate        string `json:"new_expiry_date"`
}

var dayFirstDate = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)

var authToken = ""

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run import_legal_status.go <path-to-csv> [service-url]")
		fmt.Println("Example: go run import_legal_status.go vencimientos.csv https://taller.example.com")
		os.Exit(1)
	}

	csvPath := os.Args[1]
	serviceURL := defaultServiceURL
	if len(os.Args) > 2 {
		serviceURL = strings.TrimRight(os.Args[2], "/")
	}

	if authToken == "" {
		fmt.Print("Enter auth token (Bearer token): ")
		fmt.Scanln(&authToken)
	}

	fmt.Println("Step 1: Reading CSV file...")
	rows, skipped, err := readCSV(csvPath)
	if err != nil {
		fmt.Printf("Error reading CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Read %d rows from CSV (%d skipped)\n", len(rows), skipped)

	// Preview
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("DATES TO IMPORT")
	fmt.Println(strings.Repeat("=", 70))
	total := 0
	for _, row := range rows {
		fmt.Printf("\n%s\n", row.Plate)
		if row.ITV != "" {
			fmt.Printf("  ITV:       %s\n", row.ITV)
			total++
		}
		if row.Tacho != "" {
			fmt.Printf("  Tacógrafo: %s\n", row.Tacho)
			total++
		}
		if row.ATP != "" {
			fmt.Printf("  ATP:       %s\n", row.ATP)
			total++
		}
	}
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Printf("  Vehicles: %d | Dates: %d\n", len(rows), total)
	fmt.Println(strings.Repeat("=", 70))

	fmt.Print("\nImport these dates? (yes/no): ")
	var response string
	fmt.Scanln(&response)
	if strings.ToLower(strings.TrimSpace(response)) != "yes" {
		fmt.Println("Import cancelled.")
		return
	}

	fmt.Println("\nStep 2: Posting maintenance entries...")
	successCount, failCount := 0, 0
	for _, row := range rows {
		for _, entry := range payloadsFor(row) {
			if err := postLog(serviceURL, entry); err != nil {
				fmt.Printf("  ✗ %s %s: %v\n", entry.Plate, entry.InterventionTypeName, err)
				failCount++
				continue
			}
			fmt.Printf("  ✓ %s %s -> %s\n", entry.Plate, entry.InterventionTypeName, entry.NewExpiryDate)
			successCount++
		}
	}

	fmt.Printf("\n✓ Import complete: %d ok, %d failed\n", successCount, failCount)
}

func readCSV(path string) ([]csvRow, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, 0, fmt.Errorf("failed to read header: %w", err)
	}

	var rows []csvRow
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read record: %w", err)
		}

		if len(record) < 2 || strings.TrimSpace(record[0]) == "" {
			skipped++
			continue
		}

		row := csvRow{Plate: strings.TrimSpace(record[0])}
		row.ITV = cleanDate(record, 1)
		row.Tacho = cleanDate(record, 2)
		row.ATP = cleanDate(record, 3)

		if row.ITV == "" && row.Tacho == "" && row.ATP == "" {
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	return rows, skipped, nil
}

// cleanDate trims the cell and drops anything that is not a day-first date.
// The office sheet mixes in notes like "pendiente" which must not be imported.
func cleanDate(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	v := strings.TrimSpace(record[idx])
	if v == "" || !dayFirstDate.MatchString(v) {
		return ""
	}
	return v
}

// payloadsFor builds one LEGAL entry per filled date. The intervention name
// carries the keyword the server routes on.
func payloadsFor(row csvRow) []logPayload {
	var payloads []logPayload
	add := func(name, date string) {
		if date == "" {
			return
		}
		payloads = append(payloads, logPayload{
			Plate:                row.Plate,
			Category:             "LEGAL",
			Description:          "Importación cuaderno de vencimientos",
			InterventionTypeName: name,
			NewExpiryDate:        date,
		})
	}
	add("ITV", row.ITV)
	add("Tacógrafo", row.Tacho)
	add("ATP", row.ATP)
	return payloads
}

func postLog(serviceURL string, payload logPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", serviceURL+"/api/v1/maintenance/logs", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
