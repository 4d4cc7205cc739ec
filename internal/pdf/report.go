package pdf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"taskflow/internal/models"
)

// Generator renders task reports (mockable in tests).
type Generator interface {
	GenerateTaskReport(data TaskReport) (string, error)
	WriteTaskReport(w io.Writer, data TaskReport) error
}

// ReportGenerator writes PDFs under RootDir. With FontPath set, a UTF-8 TTF
// is embedded; otherwise the core Helvetica font with cp1252 is used.
type ReportGenerator struct {
	RootDir  string
	FontPath string
	fontName string
}

type TaskReport struct {
	// Filter describes the selection, e.g. "status: done".
	Filter      string
	Owner       string
	Tasks       []models.TaskListItem
	GeneratedAt time.Time
	Filename    string // base name; generated when empty
}

func NewReportGenerator(rootDir, fontPath string) *ReportGenerator {
	g := &ReportGenerator{
		RootDir:  filepath.Clean(rootDir),
		FontPath: fontPath,
		fontName: "Helvetica",
	}
	if fontPath != "" {
		g.fontName = "DejaVu"
	}
	return g
}

// GenerateTaskReport writes the report to RootDir and returns its path.
func (g *ReportGenerator) GenerateTaskReport(data TaskReport) (string, error) {
	if data.GeneratedAt.IsZero() {
		data.GeneratedAt = time.Now()
	}
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("tasks_%s.pdf", data.GeneratedAt.Format("20060102_150405"))
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}
	f, err := os.Create(absPath)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	if err := g.WriteTaskReport(f, data); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	return absPath, nil
}

var columns = []struct {
	title string
	width float64
}{
	{"ID", 14}, {"Title", 70}, {"Status", 26}, {"Priority", 22}, {"Due", 24}, {"Assignee", 24},
}

func (g *ReportGenerator) WriteTaskReport(w io.Writer, data TaskReport) error {
	if data.GeneratedAt.IsZero() {
		data.GeneratedAt = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Task report", true)
	pdf.SetAuthor("TaskFlow", true)
	pdf.SetMargins(10, 20, 10)
	pdf.SetAutoPageBreak(true, 20)
	tr := g.addFont(pdf)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "Tasks", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	sub := data.GeneratedAt.Format("2006-01-02 15:04")
	if data.Owner != "" {
		sub = data.Owner + ", " + sub
	}
	if data.Filter != "" {
		sub += " (" + data.Filter + ")"
	}
	pdf.CellFormat(0, 6, tr(sub), "", 1, "C", false, 0, "")
	g.hr(pdf)

	if len(data.Tasks) == 0 {
		pdf.SetFont(g.fontName, "", 11)
		pdf.CellFormat(0, 8, "No tasks.", "", 1, "L", false, 0, "")
	} else {
		g.tableHeader(pdf)
		pdf.SetFont(g.fontName, "", 10)
		for _, t := range data.Tasks {
			due, assignee := "-", "-"
			if t.DueDate != nil {
				due = t.DueDate.Format("2006-01-02")
			}
			if t.Assignee != nil {
				assignee = t.Assignee.Username
			}
			cells := []string{strconv.FormatInt(t.ID, 10), t.Title, string(t.Status), string(t.Priority), due, assignee}
			for i, c := range cells {
				pdf.CellFormat(columns[i].width, 7, fit(pdf, tr, c, columns[i].width-2), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func (g *ReportGenerator) tableHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont(g.fontName, "B", 10)
	pdf.SetFillColor(230, 240, 240)
	for _, c := range columns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

// fit translates s and cuts it to width mm at the current font.
func fit(pdf *gofpdf.Fpdf, tr func(string) string, s string, width float64) string {
	if out := tr(s); pdf.GetStringWidth(out) <= width {
		return out
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(tr(string(r)+"...")) > width {
		r = r[:len(r)-1]
	}
	return tr(string(r) + "...")
}

func (g *ReportGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(10, y, 200, y)
	pdf.SetY(y + 3)
}

func (g *ReportGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}
	return filepath.Join(g.RootDir, filepath.Base(filename)), nil
}

// addFont registers the UTF-8 font when configured and returns the string
// translator matching the font in use.
func (g *ReportGenerator) addFont(pdf *gofpdf.Fpdf) func(string) string {
	if g.FontPath == "" {
		return pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
	return func(s string) string { return s }
}
