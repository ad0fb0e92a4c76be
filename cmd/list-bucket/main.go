// Command list-bucket is an interactive inspector for a processed-data
// bucket: it lists the archives under a prefix and decodes each key
// into its pipeline fields (stage, run id, model, media title, year).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/impresso/impresso-essentials/pkg/config"
	"github.com/impresso/impresso-essentials/pkg/s3path"
	"github.com/impresso/impresso-essentials/pkg/s3storage"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// --- Styles ---
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	fieldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// --- Messages ---
type errMsg error
type contentMsg []s3storage.StoredObject

// --- Model ---
type model struct {
	s3Client *s3storage.Client
	bucket   string
	prefix   string
	spinner  spinner.Model
	viewport viewport.Model

	loading bool
	err     error
	ready   bool
	width   int
}

func initialModel(s3 *s3storage.Client, bucket, prefix string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		s3Client: s3,
		bucket:   bucket,
		prefix:   prefix,
		spinner:  s,
		loading:  true,
		width:    120,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		fetchBucketContents(m.s3Client, m.bucket, m.prefix),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {

	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case errMsg:
		m.err = msg
		m.loading = false
		return m, nil

	case contentMsg:
		m.loading = false
		m.viewport.SetContent(formatFileList(msg, m.bucket, m.width))
		return m, nil

	case tea.WindowSizeMsg:
		headerHeight := 2
		verticalMarginHeight := 2
		m.width = msg.Width

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-verticalMarginHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - verticalMarginHeight
		}
	}

	if m.loading {
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("\n❌ Error: %v\n\nPress 'q' to quit.", m.err)
	}

	header := titleStyle.Render("📦 " + m.bucket)

	if m.loading {
		return fmt.Sprintf("\n %s Connecting to S3 and fetching objects...\n\n", m.spinner.View())
	}

	return fmt.Sprintf("%s\n%s\n\n(Press 'q' to quit, arrows to scroll)", header, m.viewport.View())
}

// --- Commands ---

func fetchBucketContents(client *s3storage.Client, bucket, prefix string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		files, err := client.ListFiles(ctx, bucket, prefix)
		if err != nil {
			return errMsg(err)
		}
		return contentMsg(files)
	}
}

// formatFileList renders one line per archive: size, key, and the
// decoded pipeline fields when the key follows the naming scheme.
func formatFileList(files []s3storage.StoredObject, bucket string, width int) string {
	if len(files) == 0 {
		return "Bucket is empty."
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Total Objects: %d\n\n", len(files)))

	for _, f := range files {
		size := fmt.Sprintf("%8.2f KB", float64(f.Size)/1024)
		key := truncate.StringWithTail(f.Key, uint(width-14), "…")
		b.WriteString(fmt.Sprintf("%s  %s\n", size, keyStyle.Render(key)))

		if parsed, ok := s3path.ParseKey("s3://" + bucket + "/" + f.Key); ok {
			b.WriteString(fieldStyle.Render("            " + describeKey(parsed)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func describeKey(p *s3path.ParsedKey) string {
	fields := []string{
		"stage=" + p.StageNumber,
		"phase=" + p.Phase,
		"label=" + p.ProcessingLabel,
		"run=" + p.RunID,
		"task=" + p.Task,
		"lang=" + p.Lang,
		"media=" + p.MediaAlias,
		"year=" + p.Year,
	}
	if p.ProviderAlias != nil {
		fields = append(fields, "provider="+*p.ProviderAlias)
	}
	return strings.Join(fields, " ")
}

// --- Main ---

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	bucket := flag.String("bucket", "", "bucket to inspect")
	prefix := flag.String("prefix", "", "key prefix to restrict the listing to")
	flag.Parse()

	if *bucket == "" {
		fmt.Fprintln(os.Stderr, "Usage: list-bucket -bucket <bucket> [-prefix <prefix>]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	s3Client, err := s3storage.New(cfg.S3)
	if err != nil {
		log.Fatalf("S3 init error: %v", err)
	}

	p := tea.NewProgram(
		initialModel(s3Client, *bucket, *prefix),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
