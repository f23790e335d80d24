package entity

import "image"

// QualityPoint средняя ошибка ELA при одном уровне качества.
type QualityPoint struct {
	Quality int     `json:"quality"`
	Mean    float64 `json:"mean"`
}

// ELAMetrics метрики анализа уровня ошибок.
type ELAMetrics struct {
	Quality    int     `json:"quality"`
	Mean       float64 `json:"mean"`
	Std        float64 `json:"std"`
	P95        float64 `json:"p95"`
	EdgeMean   float64 `json:"edge_mean"`
	SmoothMean float64 `json:"smooth_mean"`
	Ratio      float64 `json:"ela_ratio"`
	FocalRatio float64 `json:"focal_ratio"`

	Curve        []QualityPoint `json:"quality_curve,omitempty"`
	Slope        float64        `json:"slope"`
	SlopeChecked bool           `json:"slope_checked"`
	SlopeAnomaly bool           `json:"slope_anomaly"`

	Map *ELAMap `json:"-"`
}

// ELAMap карта абсолютной разницы после перекодирования, того же размера, что исходник.
type ELAMap struct {
	Width  int
	Height int
	Values []float64
}

// Normalized растягивает карту в 0..255 относительно максимума и обрезает выбросы.
func (m *ELAMap) Normalized() []uint8 {
	out := make([]uint8, len(m.Values))
	maxV := 0.0
	for _, v := range m.Values {
		if v > maxV {
			maxV = v
		}
	}
	if maxV == 0 {
		return out
	}
	scale := 255.0 / maxV
	for i, v := range m.Values {
		s := v * scale
		switch {
		case s < 0:
			s = 0
		case s > 255:
			s = 255
		}
		out[i] = uint8(s + 0.5)
	}
	return out
}

// TileGrid построчная сетка плиток с текстурной энергией и плотностью краёв.
// TileW/TileH номинальный размер плитки. Остаток W - NX*TileW (и по высоте)
// указан в RemainderX/RemainderY и распределён между плитками, см. TileRect.
type TileGrid struct {
	NX          int       `json:"nx"`
	NY          int       `json:"ny"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	TileW       int       `json:"tile_w"`
	TileH       int       `json:"tile_h"`
	RemainderX  int       `json:"remainder_x"`
	RemainderY  int       `json:"remainder_y"`
	LapVar      []float64 `json:"-"`
	EdgeDensity []float64 `json:"-"`
}

// Len число плиток.
func (g TileGrid) Len() int { return g.NX * g.NY }

// TileRect прямоугольник плитки в пикселях. Плитка k по оси занимает
// [floor(k*W/N), ceil((k+1)*W/N)): сетка покрывает изображение целиком,
// соседние плитки делят не больше одного пикселя, а поворот на 180°
// переводит плитку k в плитку N-1-k.
// Без Width/Height сетка считается ровно NX*TileW на NY*TileH.
func (g TileGrid) TileRect(i int) image.Rectangle {
	w, h := g.Width, g.Height
	if w <= 0 {
		w = g.NX * g.TileW
	}
	if h <= 0 {
		h = g.NY * g.TileH
	}
	x, y := i%g.NX, i/g.NX
	x0, x1 := tileSpan(x, g.NX, w)
	y0, y1 := tileSpan(y, g.NY, h)
	return image.Rect(x0, y0, x1, y1)
}

func tileSpan(k, n, size int) (int, int) {
	return k * size / n, ((k+1)*size + n - 1) / n
}

// OutlierMask булева маска поверх TileGrid.
type OutlierMask struct {
	NX    int
	NY    int
	Cells []bool
}

// Count число отмеченных плиток.
func (m OutlierMask) Count() int {
	n := 0
	for _, c := range m.Cells {
		if c {
			n++
		}
	}
	return n
}

// Ratio доля отмеченных плиток, всегда в [0,1].
func (m OutlierMask) Ratio() float64 {
	if len(m.Cells) == 0 {
		return 0
	}
	return float64(m.Count()) / float64(len(m.Cells))
}

// Cluster связная компонента выбросов (4-соседство).
type Cluster struct {
	Bounds      image.Rectangle `json:"bounds"`
	Tiles       int             `json:"tiles"`
	Compactness float64         `json:"compactness"`
	Localized   bool            `json:"localized"`
}

// AngleGroup корзина углов отрезков.
type AngleGroup struct {
	AngleDeg int `json:"angle_deg"`
	Count    int `json:"count"`
}

// LineStats статистика отрезков Хафа.
type LineStats struct {
	Total            int          `json:"total"`
	DominantGroups   []AngleGroup `json:"dominant_groups,omitempty"`
	ParallelDominant bool         `json:"parallel_dominant"`
	InCluster        int          `json:"in_cluster"`
	InClusterRatio   float64      `json:"in_cluster_ratio"`
}

// Severity уровень подозрения на локальную правку.
type Severity string

const (
	SeverityNone   Severity = "NONE"
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// NoiseMetrics метрики анализатора шума и краёв.
type NoiseMetrics struct {
	Grid               TileGrid  `json:"grid"`
	GlobalLapVar       float64   `json:"global_laplacian_var"`
	GlobalEdgeDensity  float64   `json:"global_edge_density"`
	CannyLow           float64   `json:"canny_low"`
	CannyHigh          float64   `json:"canny_high"`
	OutlierRatio       float64   `json:"outlier_ratio"`
	Clusters           []Cluster `json:"clusters,omitempty"`
	LocalizedClusters  int       `json:"localized_clusters"`
	MinCompactness     float64   `json:"min_compactness"`
	HaloRatio          float64   `json:"halo_ratio"`
	HaloSampled        int       `json:"halo_sampled"`
	Lines              LineStats `json:"lines"`
	LocalEditSuspected bool      `json:"local_edit_suspected"`
	Severity           Severity  `json:"severity"`
}

// CopyMoveMatch отфильтрованная пара ключевых точек.
type CopyMoveMatch struct {
	QueryIdx int         `json:"query_idx"`
	TrainIdx int         `json:"train_idx"`
	From     image.Point `json:"from"`
	To       image.Point `json:"to"`
	Distance float64     `json:"distance_px"`
}

// CopyMoveMetrics метрики детектора клонирования.
type CopyMoveMetrics struct {
	Keypoints  int             `json:"keypoints"`
	MatchCount int             `json:"match_count"`
	Density    float64         `json:"density_per_mp"`
	Score      float64         `json:"score_0_1"`
	Matches    []CopyMoveMatch `json:"matches,omitempty"`
}

// Источники текстовых областей.
const (
	RegionSourceDeclared = "declared"
	RegionSourceOCR      = "ocr"
	RegionSourceInternal = "internal"
)

// TextRegion прямоугольник текстовой области.
type TextRegion struct {
	Box    image.Rectangle `json:"box"`
	Source string          `json:"source"`
}

// SyntheticTextCandidate текстовая область с признаками вставленного текста.
type SyntheticTextCandidate struct {
	Box        image.Rectangle `json:"box"`
	StrokeMean float64         `json:"stroke_mean"`
	StrokeCV   float64         `json:"stroke_cv"`
	PureShare  float64         `json:"pure_share"`
	Uniform    bool            `json:"uniform"`
	PureColor  bool            `json:"pure_color"`
}

// OverlayCandidate цветной штрих рядом с текстом.
type OverlayCandidate struct {
	Box         image.Rectangle `json:"box"`
	Area        int             `json:"area"`
	AspectRatio float64         `json:"aspect_ratio"`
	EdgeRatio   float64         `json:"edge_ratio"`
	Solidity    float64         `json:"solidity"`
	HueVariance float64         `json:"hue_variance"`
	StrokeCV    float64         `json:"stroke_cv"`
	TextOverlap float64         `json:"text_overlap"`
	MeanChroma  float64         `json:"mean_chroma"`
}

// OverlayMetrics метрики детектора синтетического текста и цветных наложений.
type OverlayMetrics struct {
	TextRegions       int                      `json:"text_regions"`
	RegionSource      string                   `json:"region_source"`
	Synthetic         []SyntheticTextCandidate `json:"synthetic,omitempty"`
	SyntheticDetected bool                     `json:"synthetic_detected"`
	ChromaThreshold   float64                  `json:"chroma_threshold"`
	SatThreshold      float64                  `json:"saturation_threshold"`
	Overlays          []OverlayCandidate       `json:"overlays,omitempty"`
	OverlayDetected   bool                     `json:"overlay_detected"`
	OverlayReason     string                   `json:"overlay_reason,omitempty"`
}

// MetadataMetrics аномалии EXIF/XMP.
type MetadataMetrics struct {
	Format    string   `json:"format"`
	HasEXIF   bool     `json:"has_exif"`
	HasXMP    bool     `json:"has_xmp"`
	Software  string   `json:"software,omitempty"`
	Anomalies []string `json:"anomalies,omitempty"`
}
