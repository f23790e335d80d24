// Package metadata ищет следы редактирования в EXIF и XMP.
package metadata

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"docguard/internal/domain/entity"
)

const exifTimeLayout = "2006:01:02 15:04:05"

// editors подстроки поля Software, характерные для графических редакторов.
var editors = []string{
	"photoshop", "gimp", "lightroom", "snapseed", "picsart", "canva",
	"pixelmator", "affinity", "paint.net", "facetune", "meitu", "photopea",
}

var (
	xmpCreatorTool = regexp.MustCompile(`xmp:CreatorTool(?:="([^"]*)"|>([^<]*)<)`)
	xmpEditAction  = regexp.MustCompile(`stEvt:action(?:="|>)(saved|converted|derived)`)
)

// Analyzer анализатор метаданных.
type Analyzer struct {
	// ModifiedSlack допустимый разрыв между DateTime и DateTimeOriginal.
	ModifiedSlack time.Duration
}

// NewAnalyzer создаёт анализатор с допуском в минуту.
func NewAnalyzer() *Analyzer {
	return &Analyzer{ModifiedSlack: time.Minute}
}

// Analyze разбирает EXIF (goexif) и сканирует XMP-пакет в исходных байтах.
// Без метаданных результат недоступен, а не пуст.
func (a *Analyzer) Analyze(ctx context.Context, raw []byte, format string) entity.Result[entity.MetadataMetrics] {
	if len(raw) == 0 {
		return entity.Unavailable[entity.MetadataMetrics]("no source bytes")
	}
	if err := ctx.Err(); err != nil {
		return entity.Unavailable[entity.MetadataMetrics](err.Error())
	}

	m := entity.MetadataMetrics{Format: format}
	if x, err := exif.Decode(bytes.NewReader(raw)); err == nil {
		m.HasEXIF = true
		a.inspectEXIF(x, &m)
	}
	inspectXMP(raw, &m)

	if !m.HasEXIF && !m.HasXMP {
		return entity.Unavailable[entity.MetadataMetrics]("no metadata")
	}
	return entity.Available(m)
}

func (a *Analyzer) inspectEXIF(x *exif.Exif, m *entity.MetadataMetrics) {
	m.Software = stringTag(x, exif.Software)
	if editor := matchEditor(m.Software); editor != "" {
		m.Anomalies = append(m.Anomalies, fmt.Sprintf("software=%s", m.Software))
		if stringTag(x, exif.Make) == "" && stringTag(x, exif.Model) == "" {
			m.Anomalies = append(m.Anomalies, "no camera make/model")
		}
	}

	modified, okMod := timeTag(x, exif.DateTime)
	original, okOrig := timeTag(x, exif.DateTimeOriginal)
	if okMod && okOrig && modified.Sub(original) > a.ModifiedSlack {
		m.Anomalies = append(m.Anomalies, fmt.Sprintf("modified %s after capture", modified.Sub(original).Round(time.Second)))
	}
}

func inspectXMP(raw []byte, m *entity.MetadataMetrics) {
	start := bytes.Index(raw, []byte("<x:xmpmeta"))
	if start < 0 {
		return
	}
	end := bytes.Index(raw[start:], []byte("</x:xmpmeta>"))
	packet := raw[start:]
	if end >= 0 {
		packet = raw[start : start+end]
	}
	m.HasXMP = true

	if sm := xmpCreatorTool.FindSubmatch(packet); sm != nil {
		tool := string(sm[1])
		if tool == "" {
			tool = string(sm[2])
		}
		if m.Software == "" {
			m.Software = tool
		}
		if matchEditor(tool) != "" {
			m.Anomalies = append(m.Anomalies, fmt.Sprintf("xmp creator=%s", tool))
		}
	}
	if bytes.Contains(packet, []byte("photoshop:History")) {
		m.Anomalies = append(m.Anomalies, "xmp photoshop history")
	}
	if sm := xmpEditAction.FindSubmatch(packet); sm != nil {
		m.Anomalies = append(m.Anomalies, fmt.Sprintf("xmp history action=%s", sm[1]))
	}
}

func matchEditor(software string) string {
	s := strings.ToLower(software)
	for _, e := range editors {
		if strings.Contains(s, e) {
			return e
		}
	}
	return ""
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	v, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(v, "\x00"))
}

func timeTag(x *exif.Exif, name exif.FieldName) (time.Time, bool) {
	s := stringTag(x, name)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(exifTimeLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
