package main

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"docguard/internal/domain/entity"
)

var (
	infoColor    = color.New(color.FgBlue).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	alertColor   = color.New(color.FgRed, color.Bold).SprintFunc()
)

var errNoImages = errors.New("no images found")

// imageExts расширения, которые умеет декодер.
var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

func printInfo(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", infoColor("[*]"), fmt.Sprintf(format, args...))
}

// предупреждения и ошибки в stderr, чтобы не портить вывод -json
func printWarning(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", warningColor("[!]"), fmt.Sprintf(format, args...))
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorColor("[-]"), fmt.Sprintf(format, args...))
}

// tierLabel метка уровня в цвете по важности.
func tierLabel(t entity.Tier) string {
	s := fmt.Sprintf("[%s]", t)
	switch t {
	case entity.TierNormal:
		return successColor(s)
	case entity.TierLow:
		return infoColor(s)
	case entity.TierMedium:
		return warningColor(s)
	case entity.TierHigh:
		return errorColor(s)
	default:
		return alertColor(s)
	}
}

func printResult(res fileResult) {
	if res.Error != "" {
		printError("%s: %s", res.File, res.Error)
		return
	}
	v := res.Verdict
	fmt.Printf("%s %s score=%.0f policy=%s %dx%d\n", tierLabel(v.Tier), res.File, v.Score, v.Policy, v.Width, v.Height)
	for _, line := range v.EvidenceLines() {
		fmt.Printf("    - %s\n", line)
	}
	for _, w := range v.Warnings {
		fmt.Printf("    %s %s\n", warningColor("!"), w)
	}
}

func printSummary(results []fileResult) {
	counts := make(map[entity.Tier]int)
	failed := 0
	for _, res := range results {
		if res.Verdict == nil {
			failed++
			continue
		}
		counts[res.Verdict.Tier]++
	}

	fmt.Println()
	printInfo("Summary: %d images", len(results))
	for t := entity.TierNormal; t <= entity.TierPriority; t++ {
		if counts[t] > 0 {
			fmt.Printf("    %s %d\n", tierLabel(t), counts[t])
		}
	}
	if failed > 0 {
		fmt.Printf("    %s %d\n", errorColor("[ERROR]"), failed)
	}
}

// gatherImages файлы изображений каталога (без рекурсии) в алфавитном порядке.
func gatherImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, errNoImages)
	}
	sort.Strings(out)
	return out, nil
}

// writeELA сохраняет нормированную карту ELA как серый PNG.
func writeELA(path string, m *entity.ELAMap) error {
	img := &image.Gray{
		Pix:    m.Normalized(),
		Stride: m.Width,
		Rect:   image.Rect(0, 0, m.Width, m.Height),
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
