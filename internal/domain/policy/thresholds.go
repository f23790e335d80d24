package policy

// Thresholds все числовые пороги детекторов и условий решения.
type Thresholds struct {
	// Seed зерно для всех случайных выборок оценки.
	Seed uint64

	// Сетка плиток
	MinTileSize int
	TileDivisor int
	MinGrid     int

	// ELA
	ELAQuality        int
	ELASlopeQualities []int
	ELASlopeEnabled   bool
	ELARatio          float64
	ELAFocalRatio     float64
	ELASmoothFloor    float64
	ELAMinSlope       float64
	ELADipTolerance   float64

	// Шум и края
	OutlierZ             float64
	OutlierFloor         float64
	OutlierHigh          float64
	LocalizedCompactness float64
	HaloSampleCap        int
	HaloWalk             int
	HaloDelta            float64
	HaloHigh             float64
	HoughThreshold       int
	HoughMinLength       float64
	HoughMaxGap          float64
	AngleBucketDeg       int
	DominantShare        float64
	LineClusterHigh      float64

	// Клонирование
	CopyMoveMaxFeatures    int
	CopyMoveRatio          float64
	CopyMoveMinDistance    float64
	CopyMoveMinKeypoints   int
	CopyMoveDensityCeiling float64

	// Синтетический текст
	StrokeCVMax      float64
	PureColorEnabled bool
	PureTolerance    float64
	PureShare        float64
	MinTextBoxArea   int

	// Цветные наложения
	HeaderExclusion    float64
	ROIDilate          int
	ChromaPercentile   float64
	MinChroma          float64
	MinSaturation      float64
	AspectMin          float64
	AspectMax          float64
	MinEdgeRatio       float64
	MinTextOverlap     float64
	MinSolidity        float64
	MaxHueStd          float64
	OverlayStrokeCVMax float64
	MinComponentArea   int

	// Условия движка решений
	CondNoiseHalo            float64
	CondLocalizedCompactness float64
	CondCopyMoveScore        float64
}

func baseThresholds() Thresholds {
	return Thresholds{
		Seed: 1,

		MinTileSize: 64,
		TileDivisor: 16,
		MinGrid:     4,

		ELAQuality:        90,
		ELASlopeQualities: []int{95, 90, 85, 80},
		ELASlopeEnabled:   true,
		ELARatio:          1.2,
		ELAFocalRatio:     3.0,
		ELASmoothFloor:    1.0,
		ELAMinSlope:       0.05,
		ELADipTolerance:   0.15,

		OutlierZ:             2.5,
		OutlierFloor:         0.05,
		OutlierHigh:          0.15,
		LocalizedCompactness: 6.0,
		HaloSampleCap:        20000,
		HaloWalk:             4,
		HaloDelta:            10,
		HaloHigh:             0.35,
		HoughThreshold:       50,
		HoughMinLength:       30,
		HoughMaxGap:          5,
		AngleBucketDeg:       5,
		DominantShare:        0.10,
		LineClusterHigh:      0.30,

		CopyMoveMaxFeatures:    5000,
		CopyMoveRatio:          0.75,
		CopyMoveMinDistance:    20,
		CopyMoveMinKeypoints:   50,
		CopyMoveDensityCeiling: 40,

		StrokeCVMax:      0.20,
		PureColorEnabled: true,
		PureTolerance:    12,
		PureShare:        0.85,
		MinTextBoxArea:   100,

		HeaderExclusion:    0.15,
		ROIDilate:          15,
		ChromaPercentile:   0.90,
		MinChroma:          25,
		MinSaturation:      70,
		AspectMin:          2,
		AspectMax:          20,
		MinEdgeRatio:       0.10,
		MinTextOverlap:     0.20,
		MinSolidity:        0.55,
		MaxHueStd:          12,
		OverlayStrokeCVMax: 0.45,
		MinComponentArea:   40,

		CondNoiseHalo:            0.30,
		CondLocalizedCompactness: 4.0,
		CondCopyMoveScore:        0.25,
	}
}

// floatFields настраиваемые вещественные пороги по имени для файла переопределений.
func (t *Thresholds) floatFields() map[string]*float64 {
	return map[string]*float64{
		"ela_ratio":                  &t.ELARatio,
		"ela_focal_ratio":            &t.ELAFocalRatio,
		"ela_smooth_floor":           &t.ELASmoothFloor,
		"ela_min_slope":              &t.ELAMinSlope,
		"ela_dip_tolerance":          &t.ELADipTolerance,
		"outlier_z":                  &t.OutlierZ,
		"outlier_floor":              &t.OutlierFloor,
		"outlier_high":               &t.OutlierHigh,
		"localized_compactness":      &t.LocalizedCompactness,
		"halo_delta":                 &t.HaloDelta,
		"halo_high":                  &t.HaloHigh,
		"hough_min_length":           &t.HoughMinLength,
		"hough_max_gap":              &t.HoughMaxGap,
		"dominant_share":             &t.DominantShare,
		"line_cluster_high":          &t.LineClusterHigh,
		"copymove_ratio":             &t.CopyMoveRatio,
		"copymove_min_distance":      &t.CopyMoveMinDistance,
		"copymove_density_ceiling":   &t.CopyMoveDensityCeiling,
		"stroke_cv_max":              &t.StrokeCVMax,
		"pure_tolerance":             &t.PureTolerance,
		"pure_share":                 &t.PureShare,
		"header_exclusion":           &t.HeaderExclusion,
		"chroma_percentile":          &t.ChromaPercentile,
		"min_chroma":                 &t.MinChroma,
		"min_saturation":             &t.MinSaturation,
		"aspect_min":                 &t.AspectMin,
		"aspect_max":                 &t.AspectMax,
		"min_edge_ratio":             &t.MinEdgeRatio,
		"min_text_overlap":           &t.MinTextOverlap,
		"min_solidity":               &t.MinSolidity,
		"max_hue_std":                &t.MaxHueStd,
		"overlay_stroke_cv_max":      &t.OverlayStrokeCVMax,
		"cond_noise_halo":            &t.CondNoiseHalo,
		"cond_localized_compactness": &t.CondLocalizedCompactness,
		"cond_copymove_score":        &t.CondCopyMoveScore,
	}
}

// intFields настраиваемые целочисленные пороги по имени.
func (t *Thresholds) intFields() map[string]*int {
	return map[string]*int{
		"min_tile_size":          &t.MinTileSize,
		"tile_divisor":           &t.TileDivisor,
		"min_grid":               &t.MinGrid,
		"ela_quality":            &t.ELAQuality,
		"halo_sample_cap":        &t.HaloSampleCap,
		"halo_walk":              &t.HaloWalk,
		"hough_threshold":        &t.HoughThreshold,
		"angle_bucket_deg":       &t.AngleBucketDeg,
		"copymove_max_features":  &t.CopyMoveMaxFeatures,
		"copymove_min_keypoints": &t.CopyMoveMinKeypoints,
		"min_text_box_area":      &t.MinTextBoxArea,
		"roi_dilate":             &t.ROIDilate,
		"min_component_area":     &t.MinComponentArea,
	}
}
