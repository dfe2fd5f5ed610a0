// Package report renders a sprint's analyses as a PDF.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
)

// Write renders the sprint header, one section per completed module and the
// list of modules still pending.
func Write(w io.Writer, sp models.Sprint, modules []models.SprintModule) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(sp.CompanyName+" validation sprint"), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(fmt.Sprintf("Validation Sprint: %s", sp.CompanyName)))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Tier: %s    Status: %s    Progress: %d%%", sp.Tier, sp.Status, sp.Progress)))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Generated from data last updated %s", sp.UpdatedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(12)

	var pending []models.SprintModule
	completed := 0
	for _, m := range modules {
		if !m.IsCompleted || !m.HasAnalysis() {
			pending = append(pending, m)
			continue
		}
		completed++
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(0, 10, tr(m.ModuleType.Title()))
		pdf.Ln(9)
		pdf.SetFont("Courier", "", 9)
		pdf.MultiCell(0, 4.5, tr(analysisText(m.AIAnalysis)), "", "", false)
		pdf.Ln(6)
	}
	if completed == 0 {
		pdf.SetFont("Arial", "I", 12)
		pdf.Cell(0, 8, "No analyses completed yet.")
		pdf.Ln(10)
	}

	if len(pending) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 10, "Pending modules")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 11)
		for _, m := range pending {
			state := "[ ]"
			if m.IsLocked {
				state = "[locked]"
			}
			pdf.Cell(0, 7, tr(fmt.Sprintf("  %s %s", state, m.ModuleType.Title())))
			pdf.Ln(6)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// analysisText turns stored content into printable text: strings as-is,
// objects indented.
func analysisText(raw []byte) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
