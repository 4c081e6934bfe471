// Package poppler wraps the pdfinfo, pdftotext and pdftoppm command line tools.
package poppler

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

var (
	ErrPasswordProtected = eris.New("PDF is password protected")
	ErrDamaged           = eris.New("PDF appears to be damaged or invalid")
)

type Config struct {
	PDFInfoTimeout   time.Duration
	PDFToTextTimeout time.Duration
	PDFToPPMTimeout  time.Duration
	DPI              int
	Log              logrus.FieldLogger
}

// Sensible defaults if you pass zeros.
func (c Config) withDefaults() Config {
	out := c
	if out.PDFInfoTimeout <= 0 {
		out.PDFInfoTimeout = 5 * time.Second
	}
	if out.PDFToTextTimeout <= 0 {
		out.PDFToTextTimeout = 30 * time.Second
	}
	if out.PDFToPPMTimeout <= 0 {
		out.PDFToPPMTimeout = 30 * time.Second
	}
	if out.DPI <= 0 {
		out.DPI = 300
	}
	if out.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		out.Log = l
	}
	return out
}

type PDFInfo struct {
	Pages     int
	Encrypted bool
	Raw       string // full pdfinfo stdout
}

var (
	pageCountRegex = regexp.MustCompile(`(?m)^Pages:\s+(\d+)\s*$`)
	encryptedRegex = regexp.MustCompile(`(?mi)^Encrypted:\s+yes\s*$`)
)

// GetPDFInfo runs pdfinfo once and extracts page count + encryption flag.
func GetPDFInfo(ctx context.Context, pdfPath string, cfg Config) (PDFInfo, error) {
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, cfg.PDFInfoTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "pdfinfo", pdfPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return PDFInfo{}, classifyPopplerErr(ctx, cfg.Log, "pdfinfo", err, stderr.String(), 0)
	}

	out := stdout.String()
	pages, err := parsePages(out)
	if err != nil {
		return PDFInfo{}, err
	}

	return PDFInfo{
		Pages:     pages,
		Encrypted: encryptedRegex.MatchString(out),
		Raw:       out,
	}, nil
}

func PageCount(ctx context.Context, pdfPath string, cfg Config) (int, error) {
	info, err := GetPDFInfo(ctx, pdfPath, cfg)
	if err != nil {
		return 0, err
	}
	return info.Pages, nil
}

// ExtractPages runs pdftotext over the whole document and splits the output
// on form feeds, one entry per page.
func ExtractPages(ctx context.Context, pdfPath string, cfg Config) ([]string, error) {
	cfg = cfg.withDefaults()

	// Cap output to 50 MiB total
	const maxAllBytes = 50<<20 + 1

	ctx, cancel := context.WithTimeout(ctx, cfg.PDFToTextTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx,
		"pdftotext",
		"-enc", "UTF-8",
		pdfPath,
		"-",
	)

	text, stderrStr, err := runCommandCaptureLimited(cmd, maxAllBytes)
	if err != nil {
		return nil, classifyPopplerErr(ctx, cfg.Log, "pdftotext", err, stderrStr, 0)
	}

	pages := strings.Split(text, "\f")
	// pdftotext terminates the last page with a form feed too.
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages, nil
}

// RenderPage rasterises one page to PNG inside outDir and returns the path.
func RenderPage(ctx context.Context, pdfPath string, page int, outDir string, cfg Config) (string, error) {
	cfg = cfg.withDefaults()

	if page < 1 {
		return "", eris.Errorf("invalid page number: %d (must be >= 1)", page)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.PDFToPPMTimeout)
	defer cancel()

	prefix := filepath.Join(outDir, "page-"+strconv.Itoa(page))
	cmd := exec.CommandContext(ctx,
		"pdftoppm",
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-r", strconv.Itoa(cfg.DPI),
		"-png",
		"-singlefile",
		pdfPath,
		prefix,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", classifyPopplerErr(ctx, cfg.Log, "pdftoppm", err, stderr.String(), page)
	}

	out := prefix + ".png"
	st, err := os.Stat(out)
	if err != nil {
		return "", eris.Wrapf(err, "pdftoppm produced no image for page %d", page)
	}
	if st.Size() == 0 {
		return "", eris.Errorf("pdftoppm produced an empty image for page %d", page)
	}
	return out, nil
}

// --- internals ---

func parsePages(pdfinfoOut string) (int, error) {
	matches := pageCountRegex.FindStringSubmatch(pdfinfoOut)
	if len(matches) == 2 {
		n, err := strconv.Atoi(matches[1])
		if err != nil {
			return 0, eris.Wrap(err, "pdfinfo: invalid page count")
		}
		return validatePages(n)
	}

	// Fallback: scan lines to handle formatting variations
	sc := bufio.NewScanner(strings.NewReader(pdfinfoOut))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(strings.ToLower(line), "pages:") {
			fields := strings.Fields(line[len("Pages:"):])
			if len(fields) == 0 {
				break
			}
			n, err := strconv.Atoi(fields[0])
			if err != nil {
				return 0, eris.Wrap(err, "pdfinfo: invalid page count")
			}
			return validatePages(n)
		}
	}
	if err := sc.Err(); err != nil {
		return 0, eris.Wrap(err, "pdfinfo: scan failed")
	}

	return 0, eris.New("pdfinfo: pages field not found in output")
}

// Zero is allowed: an empty document simply yields no text.
func validatePages(count int) (int, error) {
	if count < 0 || count > 50000 {
		return 0, eris.Errorf("pdfinfo: unreasonable page count: %d", count)
	}
	return count, nil
}

// runCommandCaptureLimited runs cmd and captures stdout up to maxBytes (inclusive of sentinel).
// It captures stderr fully (usually small) for error reporting.
func runCommandCaptureLimited(cmd *exec.Cmd, maxBytes int64) (stdoutText string, stderrText string, err error) {
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return "", "", eris.Wrap(err, "stdout pipe")
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", "", eris.Wrap(err, "start")
	}

	lr := io.LimitReader(stdoutPipe, maxBytes)
	outBytes, readErr := io.ReadAll(lr)
	if readErr == nil && int64(len(outBytes)) >= maxBytes {
		_ = cmd.Process.Kill()
	}

	waitErr := cmd.Wait()
	stderrStr := strings.TrimSpace(stderr.String())

	if readErr != nil {
		_ = cmd.Process.Kill()
		return "", stderrStr, eris.Wrap(readErr, "read stdout")
	}
	if int64(len(outBytes)) >= maxBytes {
		return "", stderrStr, eris.New("output exceeds limit")
	}
	if waitErr != nil {
		return "", stderrStr, waitErr
	}

	return string(outBytes), stderrStr, nil
}

// isHelpOrUsageOutput returns true when stderr looks like a poppler
// usage / help dump rather than an actual processing error.
func isHelpOrUsageOutput(stderr string) bool {
	return strings.Contains(stderr, "version ") && strings.Contains(stderr, "Usage:")
}

func classifyPopplerErr(ctx context.Context, log logrus.FieldLogger, tool string, err error, stderr string, page int) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if page > 0 {
			return eris.Wrapf(ctx.Err(), "%s timeout on page %d", tool, page)
		}
		return eris.Wrapf(ctx.Err(), "%s timeout", tool)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return eris.Wrapf(ctx.Err(), "%s canceled", tool)
	}

	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return eris.Wrapf(err, "%s failed", tool)
	}

	logPopplerErr(log, tool, stderr, page)

	// Help text mentions "password" and "damaged" too; don't keyword-match it.
	if isHelpOrUsageOutput(stderr) {
		return eris.Errorf("%s failed (bad invocation): %s", tool, truncate(stderr, 200))
	}
	if containsAny(stderr, "Incorrect password", "Command Line Error: Incorrect password") {
		return ErrPasswordProtected
	}
	if containsAny(stderr,
		"PDF file is damaged",
		"Syntax Error",
		"Couldn't find trailer dictionary",
		"May not be a PDF file",
	) {
		return ErrDamaged
	}
	if page > 0 {
		return eris.Errorf("%s page %d failed: %s", tool, page, truncate(stderr, 300))
	}
	return eris.Errorf("%s failed: %s", tool, truncate(stderr, 300))
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func logPopplerErr(log logrus.FieldLogger, tool, stderr string, page int) {
	entry := log.WithField("tool", tool)
	if page > 0 {
		entry = entry.WithField("page", page)
	}
	entry.Warn(truncate(stderr, 500))
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
