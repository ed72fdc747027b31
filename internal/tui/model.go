package tui

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pansweep/pansweep/internal/audit"
	"github.com/pansweep/pansweep/internal/detectors"
	"github.com/pansweep/pansweep/internal/redact"
	"github.com/pansweep/pansweep/internal/report"
	"github.com/pansweep/pansweep/internal/types"
)

var (
	tableBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	detailPaneBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Padding(0, 1)

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("7"))

	emptyTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Align(lipgloss.Center)

	popupStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(1, 4)

	sevHighStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sevMedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	sevLowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

const hiddenLine = report.HiddenLine

// riskText returns plain text for a risk level (ANSI codes break table truncation).
func riskText(s types.Severity) string {
	switch s {
	case types.SevHigh:
		return "HIGH"
	case types.SevMed:
		return "MED"
	case types.SevLow:
		return "LOW"
	default:
		return "-"
	}
}

func riskRank(s types.Severity) int {
	switch s {
	case types.SevHigh:
		return 0
	case types.SevMed:
		return 1
	case types.SevLow:
		return 2
	default:
		return 3
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}

type docMsg report.Document

type scanErrMsg struct{ err error }

type clearStatusMsg struct{}

// Options configures a Model beyond the document it shows.
type Options struct {
	// Root is where .pansweepignore and the audit log live.
	Root         string
	Baseline     report.Baseline
	BaselinePath string
	Rescan       func() (report.Document, error)
	// Cached marks the document as loaded from the last saved scan.
	Cached    bool
	Timestamp time.Time
}

// Model is the interactive viewer for one scan document.
type Model struct {
	table    table.Model
	viewport viewport.Model
	spinner  spinner.Model

	doc     report.Document
	rows    []report.Row
	visible []int // indices into rows after filter and sort

	baselined    map[string]bool
	baselinePath string
	root         string
	exportDir    string
	masker       *detectors.Detector
	prefs        Prefs

	quitting      bool
	ready         bool
	scanning      bool
	viewingCached bool
	lastScanTime  time.Time
	width         int
	height        int
	statusMessage string
	rescanFunc    func() (report.Document, error)

	showHelp         bool
	showExport       bool
	showHistory      bool
	history          []audit.ScanRecord
	historySelection int

	searchMode  bool
	searchInput textinput.Model
	searchQuery string
	riskFilter  types.Severity
	sortColumn  string
	sortReverse bool
}

var sortColumns = []string{"", "risk", "brand", "path"}

// NewModel builds a model showing doc.
func NewModel(doc report.Document, opts Options) Model {
	columns := []table.Column{
		{Title: "Risk", Width: 6},
		{Title: "Brand", Width: 18},
		{Title: "Location", Width: 40},
		{Title: "PAN", Width: 22},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("15")).
		Bold(true).
		Padding(0, 1).
		Align(lipgloss.Left)
	s.Selected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(lipgloss.Color("208")).
		Bold(true).
		Padding(0, 1)
	s.Cell = lipgloss.NewStyle().Padding(0, 1)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	ti := textinput.New()
	ti.Placeholder = "Search path, brand, or PAN..."
	ti.CharLimit = 100
	ti.Width = 50
	ti.Prompt = "/ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	baselined := map[string]bool{}
	for k, v := range opts.Baseline.Items {
		if v {
			baselined[k] = true
		}
	}
	root := opts.Root
	if root == "" {
		root = "."
	}
	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	m := Model{
		table:         t,
		spinner:       sp,
		searchInput:   ti,
		baselined:     baselined,
		baselinePath:  opts.BaselinePath,
		root:          root,
		exportDir:     ".",
		masker:        detectors.New(detectors.Options{}),
		prefs:         LoadPrefs(),
		rescanFunc:    opts.Rescan,
		viewingCached: opts.Cached,
		lastScanTime:  ts,
	}
	m.setDocument(doc)
	m.statusMessage = m.defaultStatus()
	return m
}

func (m *Model) setDocument(doc report.Document) {
	m.doc = doc
	m.rows = doc.Matches
	m.applyFilters()
}

func (m Model) defaultStatus() string {
	if len(m.rows) == 0 {
		return "q: quit | r: rescan | a: history"
	}
	return "q: quit | ?: help | j/k: navigate | o: open | r: rescan | i: ignore | b: baseline"
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) rescan() tea.Cmd {
	if m.rescanFunc == nil {
		return func() tea.Msg { return statusMsg("Rescan not available") }
	}
	m.scanning = true
	f := m.rescanFunc
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		doc, err := f()
		if err != nil {
			return scanErrMsg{err: err}
		}
		return docMsg(doc)
	})
}

func (m *Model) applyFilters() {
	q := strings.ToLower(m.searchQuery)
	m.visible = make([]int, 0, len(m.rows))
	for i, r := range m.rows {
		if m.riskFilter != "" && r.Risk != m.riskFilter {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(r.Path), q) &&
			!strings.Contains(strings.ToLower(r.Brand), q) &&
			!strings.Contains(strings.ToLower(r.PAN), q) {
			continue
		}
		m.visible = append(m.visible, i)
	}
	m.sortVisible()
	m.rebuildTableRows()
}

func (m *Model) clearFilters() {
	m.searchQuery = ""
	m.searchInput.SetValue("")
	m.riskFilter = ""
	m.applyFilters()
}

func (m *Model) sortVisible() {
	less := func(a, b report.Row) bool {
		switch m.sortColumn {
		case "risk":
			return riskRank(a.Risk) < riskRank(b.Risk)
		case "brand":
			return a.Brand < b.Brand
		case "path":
			if a.Path != b.Path {
				return a.Path < b.Path
			}
			return a.Line < b.Line
		}
		return false
	}
	if m.sortColumn == "" {
		sort.Ints(m.visible)
	} else {
		sort.SliceStable(m.visible, func(i, j int) bool {
			return less(m.rows[m.visible[i]], m.rows[m.visible[j]])
		})
	}
	if m.sortReverse {
		for i, j := 0, len(m.visible)-1; i < j; i, j = i+1, j-1 {
			m.visible[i], m.visible[j] = m.visible[j], m.visible[i]
		}
	}
}

func (m *Model) cycleSortColumn() {
	for i, c := range sortColumns {
		if c == m.sortColumn {
			m.sortColumn = sortColumns[(i+1)%len(sortColumns)]
			break
		}
	}
	m.applyFilters()
}

func (m Model) sortIndicator() string {
	if m.sortColumn == "" {
		return ""
	}
	dir := "asc"
	if m.sortReverse {
		dir = "desc"
	}
	return fmt.Sprintf("  [SORT: %s %s]", m.sortColumn, dir)
}

func (m *Model) rebuildTableRows() {
	rows := make([]table.Row, 0, len(m.visible))
	for _, i := range m.visible {
		r := m.rows[i]
		risk := riskText(r.Risk)
		if m.baselined[r.Fingerprint] {
			risk += "*"
		}
		rows = append(rows, table.Row{
			risk,
			r.Brand,
			fmt.Sprintf("%s:%d", r.Path, r.Line),
			r.PAN,
		})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
	m.updateViewportContent()
}

// selected returns the row under the cursor, or nil when nothing is shown.
func (m Model) selected() *report.Row {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.visible) {
		return nil
	}
	return &m.rows[m.visible[c]]
}

// visibleDocument is the document restricted to the rows currently shown.
func (m Model) visibleDocument() report.Document {
	d := m.doc
	d.Matches = make([]report.Row, 0, len(m.visible))
	d.Unredacted = 0
	for _, i := range m.visible {
		r := m.rows[i]
		if d.Masked && !r.FullyRedacted {
			d.Unredacted++
		}
		d.Matches = append(d.Matches, r)
	}
	return d
}

func (m *Model) changeContext(delta int) {
	n := m.prefs.ContextLines + delta
	if n < 0 {
		n = 0
	}
	if n > 20 {
		n = 20
	}
	if n == m.prefs.ContextLines {
		return
	}
	m.prefs.ContextLines = n
	_ = SavePrefs(m.prefs)
	m.updateViewportContent()
}

func readFileContext(path string, targetLine int, contextLines int) ([]string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	startLine := targetLine - contextLines
	if startLine < 1 {
		startLine = 1
	}
	endLine := targetLine + contextLines

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}
	return lines, startLine, scanner.Err()
}

// maskLine masks every card number on a context line. ok is false when a
// number could not be masked in place.
func (m Model) maskLine(path string, n int, line string) (string, bool) {
	ms := m.masker.ForFile(path).ScanLine(n, line)
	if len(ms) == 0 {
		return line, true
	}
	return redact.RedactLine(line, ms)
}

func highlightLine(line string, filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		ext := filepath.Ext(filename)
		if ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer == nil {
		return line
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return line
	}
	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return line
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func (m *Model) updateViewportContent() {
	r := m.selected()
	if r == nil {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(m.detailContent(*r))
	m.viewport.GotoTop()
}

// detailContent renders the detail pane for r. In a masked document nothing
// here shows a full card number: lines that cannot be masked are hidden.
func (m Model) detailContent(r report.Row) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s  %s", r.Brand, r.PAN)))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %s:%d\n", keyStyle.Render("Location:"), r.Path, r.Line)
	fmt.Fprintf(&b, "%s %s   %s %s   %s %d\n",
		keyStyle.Render("BIN:"), r.BIN,
		keyStyle.Render("Last four:"), r.LastFour,
		keyStyle.Render("Length:"), r.Length)
	fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("Risk:"), riskText(r.Risk))
	if r.Field != "" {
		fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("Field:"), r.Field)
	}
	fmt.Fprintf(&b, "%s %s", keyStyle.Render("Fingerprint:"), r.Fingerprint)
	if m.baselined[r.Fingerprint] {
		b.WriteString("  (baselined)")
	}
	b.WriteString("\n")

	if m.prefs.HideContent {
		b.WriteString("\n" + emptyTextStyle.Render("Line content hidden (x to show)") + "\n")
		return b.String()
	}
	if m.doc.Masked && !r.FullyRedacted {
		b.WriteString("\n" + matchStyle.Render("This line could not be fully redacted and is hidden.") + "\n")
	}

	lines, start, err := readFileContext(r.Path, r.Line, m.prefs.ContextLines)
	b.WriteString("\n")
	if err != nil || len(lines) == 0 {
		b.WriteString(keyStyle.Render("Line:") + " " + m.rowContent(r) + "\n")
		return b.String()
	}
	for i, line := range lines {
		n := start + i
		text := line
		switch {
		case n == r.Line:
			text = m.rowContent(r)
		case m.doc.Masked:
			masked, ok := m.maskLine(r.Path, n, line)
			if ok {
				text = masked
			} else {
				text = hiddenLine
			}
		}
		gutter := fmt.Sprintf("%5d │ ", n)
		if n == r.Line {
			gutter = matchStyle.Render(fmt.Sprintf("%4d> │ ", n))
		}
		b.WriteString(gutter + highlightLine(text, r.Path) + "\n")
	}
	return b.String()
}

func (m Model) rowContent(r report.Row) string {
	if m.doc.Masked && !r.FullyRedacted {
		return hiddenLine
	}
	return r.Content
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searchMode {
			switch msg.String() {
			case "enter":
				m.searchMode = false
				m.searchInput.Blur()
				m.searchQuery = m.searchInput.Value()
				m.applyFilters()
				return m, nil
			case "esc":
				m.searchMode = false
				m.searchInput.Blur()
				m.searchInput.SetValue("")
				m.searchQuery = ""
				m.applyFilters()
				return m, nil
			}
			m.searchInput, cmd = m.searchInput.Update(msg)
			m.searchQuery = m.searchInput.Value()
			m.applyFilters()
			return m, cmd
		}

		if m.showHelp {
			if msg.String() == "ctrl+c" {
				m.quitting = true
				return m, tea.Quit
			}
			m.showHelp = false
			return m, nil
		}

		if m.showExport {
			m.showExport = false
			switch msg.String() {
			case "j":
				return m, m.exportRows("json")
			case "c":
				return m, m.exportRows("csv")
			case "s":
				return m, m.exportRows("sarif")
			case "y":
				return m, m.exportRows("yaml")
			}
			return m, nil
		}

		if m.showHistory {
			return m.updateHistory(msg)
		}

		if m.scanning {
			if msg.String() == "ctrl+c" {
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "/":
			m.searchMode = true
			m.searchInput.SetValue(m.searchQuery)
			return m, m.searchInput.Focus()
		case "esc":
			m.clearFilters()
			return m, nil
		case "1", "2", "3":
			sev := map[string]types.Severity{"1": types.SevHigh, "2": types.SevMed, "3": types.SevLow}[msg.String()]
			if m.riskFilter == sev {
				m.riskFilter = ""
			} else {
				m.riskFilter = sev
			}
			m.applyFilters()
			return m, nil
		case "s":
			m.cycleSortColumn()
			return m, nil
		case "S":
			m.sortReverse = !m.sortReverse
			m.applyFilters()
			return m, nil
		case "j", "down":
			m.table.MoveDown(1)
			m.updateViewportContent()
			return m, nil
		case "k", "up":
			m.table.MoveUp(1)
			m.updateViewportContent()
			return m, nil
		case "g", "home":
			m.table.GotoTop()
			m.updateViewportContent()
			return m, nil
		case "G", "end":
			m.table.GotoBottom()
			m.updateViewportContent()
			return m, nil
		case "o", "enter":
			return m, m.openEditor()
		case "i":
			return m, m.ignoreFile()
		case "b":
			return m, m.addToBaseline()
		case "B":
			return m, m.removeFromBaseline()
		case "y":
			return m, m.copyPathToClipboard()
		case "Y":
			return m, m.copyRowToClipboard()
		case "e":
			if len(m.visible) == 0 {
				return m, func() tea.Msg { return statusMsg("No card numbers to export") }
			}
			m.showExport = true
			return m, nil
		case "r":
			return m, m.rescan()
		case "a":
			return m, m.openHistory()
		case "x":
			m.prefs.HideContent = !m.prefs.HideContent
			_ = SavePrefs(m.prefs)
			m.updateViewportContent()
			return m, nil
		case "+", "=":
			m.changeContext(2)
			return m, nil
		case "-":
			m.changeContext(-2)
			return m, nil
		case "?", "h":
			m.showHelp = true
			return m, nil
		case "ctrl+d":
			m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height/2)
			return m, nil
		case "ctrl+u":
			m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height/2)
			return m, nil
		}
		m.table, cmd = m.table.Update(msg)
		m.updateViewportContent()
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		usableWidth := m.width - 10
		riskWidth := 6
		brandWidth := 18
		remaining := usableWidth - riskWidth - brandWidth
		panWidth := 22
		locWidth := remaining - panWidth
		if locWidth < 25 {
			locWidth = 25
		}
		cols := m.table.Columns()
		cols[0].Width = riskWidth
		cols[1].Width = brandWidth
		cols[2].Width = locWidth
		cols[3].Width = panWidth
		m.table.SetColumns(cols)

		statsHeaderHeight := 1
		availableHeight := m.height - lipgloss.Height(statusStyle.Render("")) - statsHeaderHeight
		tableHeight := int(float64(availableHeight) * 0.45)
		viewportHeight := availableHeight - tableHeight - detailPaneBorderStyle.GetVerticalFrameSize() - 1
		if viewportHeight < 1 {
			viewportHeight = 1
		}
		m.table.SetWidth(m.width)
		m.table.SetHeight(tableHeight)
		if m.viewport.Height == 0 {
			m.viewport = viewport.New(m.width, viewportHeight)
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		m.updateViewportContent()
		return m, nil

	case docMsg:
		m.scanning = false
		m.viewingCached = false
		m.lastScanTime = time.Now()
		m.setDocument(report.Document(msg))
		return m, func() tea.Msg {
			return statusMsg(fmt.Sprintf("Rescan complete: %d card numbers", len(msg.Matches)))
		}

	case scanErrMsg:
		m.scanning = false
		return m, func() tea.Msg { return statusMsg(fmt.Sprintf("Rescan failed: %v", msg.err)) }

	case statusMsg:
		m.statusMessage = string(msg)
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg { return clearStatusMsg{} })

	case clearStatusMsg:
		m.statusMessage = m.defaultStatus()
		return m, nil

	case spinner.TickMsg:
		if !m.scanning {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) openHistory() tea.Cmd {
	records, err := audit.NewAuditLog(m.root).LoadHistory()
	if err != nil || len(records) == 0 {
		return func() tea.Msg { return statusMsg("No scan history") }
	}
	m.history = records
	m.historySelection = 0
	m.showHistory = true
	return nil
}

func (m Model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "esc", "q", "a":
		m.showHistory = false
	case "j", "down":
		if m.historySelection < len(m.history)-1 {
			m.historySelection++
		}
	case "k", "up":
		if m.historySelection > 0 {
			m.historySelection--
		}
	case "d":
		log := audit.NewAuditLog(m.root)
		if err := log.DeleteRecord(m.historySelection); err != nil {
			return m, func() tea.Msg { return statusMsg(fmt.Sprintf("Delete failed: %v", err)) }
		}
		m.history = append(m.history[:m.historySelection], m.history[m.historySelection+1:]...)
		if m.historySelection >= len(m.history) {
			m.historySelection = max(0, len(m.history)-1)
		}
		if len(m.history) == 0 {
			m.showHistory = false
		}
		return m, func() tea.Msg { return statusMsg("Deleted history entry") }
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	if m.scanning {
		msgContent := fmt.Sprintf("%s  Rescanning...\n\nPlease wait", m.spinner.View())
		popupBox := popupStyle.Width(55).Align(lipgloss.Center).Render(msgContent)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, popupBox)
	}

	var highCount, medCount, lowCount int
	for _, i := range m.visible {
		switch m.rows[i].Risk {
		case types.SevHigh:
			highCount++
		case types.SevMed:
			medCount++
		case types.SevLow:
			lowCount++
		}
	}

	var statsContent string
	if len(m.rows) == 0 {
		statsContent = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("[OK] No card numbers found")
	} else {
		var filterInfo string
		if m.searchQuery != "" || m.riskFilter != "" {
			var parts []string
			if m.searchQuery != "" {
				parts = append(parts, fmt.Sprintf("search:'%s'", m.searchQuery))
			}
			if m.riskFilter != "" {
				parts = append(parts, fmt.Sprintf("risk:%s", riskText(m.riskFilter)))
			}
			filterInfo = fmt.Sprintf("  [FILTER: %s]", strings.Join(parts, ", "))
		}
		statsContent = fmt.Sprintf(
			"Showing: %d/%d  |  %s %-4d  |  %s %-4d  |  %s %-4d  |  Files: %d%s%s",
			len(m.visible),
			len(m.rows),
			sevHighStyle.Render("High:"), highCount,
			sevMedStyle.Render("Med:"), medCount,
			sevLowStyle.Render("Low:"), lowCount,
			m.doc.Summary.FilesScanned,
			filterInfo,
			m.sortIndicator(),
		)
	}

	statsHeader := lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 2).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("237")).
		Render(statsContent)

	tableRender := tableBorderStyle.
		Width(m.width).
		Height(m.table.Height()).
		Render(m.table.View())

	var detailContent string
	if len(m.visible) == 0 {
		emptyMsg := "No card numbers match filter.\n\nPress 'Esc' to clear filter"
		if len(m.rows) == 0 {
			emptyMsg = "No card numbers to review.\n\nPress 'r' to rescan\nPress '?' for help"
		}
		detailContent = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center,
			emptyTextStyle.Render(emptyMsg))
	} else {
		detailContent = m.viewport.View()
	}
	detailRender := detailPaneBorderStyle.
		Width(m.width).
		Height(m.viewport.Height).
		Render(detailContent)

	timeInfo := fmt.Sprintf("Scanned: %s ago", formatDuration(time.Since(m.lastScanTime)))
	if m.viewingCached {
		timeInfo = fmt.Sprintf("Cached: %s", m.lastScanTime.Format("Jan 2, 15:04"))
	}
	statusLeft := m.statusMessage
	spacer := m.width - 4 - lipgloss.Width(statusLeft) - lipgloss.Width(timeInfo)
	if spacer < 1 {
		spacer = 1
	}
	statusRender := statusStyle.
		Width(m.width).
		Padding(0, 2).
		Render(statusLeft + strings.Repeat(" ", spacer) + timeInfo)

	bottomBar := statusRender
	if m.searchMode {
		searchBarStyle := lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("15")).
			Width(m.width).
			Padding(0, 1)
		bottomBar = searchBarStyle.Render(m.searchInput.View() + fmt.Sprintf(" (%d matches)", len(m.visible)))
	}

	mainView := lipgloss.JoinVertical(lipgloss.Left, statsHeader, tableRender, detailRender, bottomBar)

	switch {
	case m.showHelp:
		return m.overlay(helpView())
	case m.showExport:
		return m.overlay("Export visible rows\n\n  j  JSON\n  c  CSV\n  s  SARIF\n  y  YAML\n\n  any other key cancels")
	case m.showHistory:
		return m.overlay(m.historyView())
	}
	return mainView
}

func (m Model) overlay(content string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, popupStyle.Render(content))
}

func helpView() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	section := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	formatRow := func(key, desc string) string {
		k := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(key)
		d := lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Render(desc)
		padding := 12 - len(key)
		if padding < 1 {
			padding = 1
		}
		return "  " + k + strings.Repeat(" ", padding) + d
	}
	lines := []string{
		title.Render("Keyboard Shortcuts"),
		"",
		section.Render("Navigation"),
		formatRow("j / k", "Move down / up"),
		formatRow("g / G", "First / last row"),
		formatRow("Ctrl+d/u", "Scroll detail pane"),
		"",
		section.Render("Search & Filter"),
		formatRow("/", "Search path, brand, PAN"),
		formatRow("1 / 2 / 3", "Filter HIGH / MED / LOW"),
		formatRow("s / S", "Sort / reverse sort"),
		formatRow("Esc", "Clear filters"),
		"",
		section.Render("Actions"),
		formatRow("o / Enter", "Open in $EDITOR"),
		formatRow("i", "Ignore file"),
		formatRow("b / B", "Baseline / unbaseline"),
		formatRow("y / Y", "Copy path / masked details"),
		formatRow("e", "Export visible rows"),
		formatRow("r", "Rescan"),
		formatRow("a", "Scan history"),
		formatRow("x", "Hide / show line content"),
		formatRow("+ / -", "More / less context"),
		formatRow("q", "Quit"),
	}
	return strings.Join(lines, "\n")
}

func (m Model) historyView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Scan history") + "\n\n")
	for i, r := range m.history {
		line := fmt.Sprintf("%s  cards: %-4d new: %-4d files: %-5d %s",
			r.Timestamp.Format("Jan 2 15:04"), r.TotalCards, r.NewCards, r.FilesScanned, r.Duration)
		if i == m.historySelection {
			line = matchStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\nj/k: move | d: delete | esc: close")
	return b.String()
}
