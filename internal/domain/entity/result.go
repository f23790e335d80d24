package entity

import "encoding/json"

// Имена детекторов в отчёте.
const (
	DetectorELA      = "ela"
	DetectorNoise    = "noise_edge"
	DetectorCopyMove = "copy_move"
	DetectorOverlay  = "overlay_text"
	DetectorMetadata = "metadata"
)

const reasonNotEvaluated = "not evaluated"

// Result результат одного детектора: либо метрики, либо причина недоступности.
// Нулевое значение означает, что детектор не запускался.
type Result[M any] struct {
	metrics *M
	reason  string
}

// Available оборачивает посчитанные метрики.
func Available[M any](m M) Result[M] {
	return Result[M]{metrics: &m}
}

// Unavailable фиксирует, почему детектор не смог отработать.
func Unavailable[M any](reason string) Result[M] {
	if reason == "" {
		reason = reasonNotEvaluated
	}
	return Result[M]{reason: reason}
}

// Metrics возвращает копию метрик и флаг доступности.
func (r Result[M]) Metrics() (M, bool) {
	if r.metrics == nil {
		var zero M
		return zero, false
	}
	return *r.metrics, true
}

// IsAvailable true, если детектор вернул метрики.
func (r Result[M]) IsAvailable() bool { return r.metrics != nil }

// Reason причина недоступности, пустая для доступного результата.
func (r Result[M]) Reason() string {
	if r.metrics != nil {
		return ""
	}
	if r.reason == "" {
		return reasonNotEvaluated
	}
	return r.reason
}

type resultJSON[M any] struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
	Metrics   *M     `json:"metrics,omitempty"`
}

// MarshalJSON сериализует результат с явным флагом доступности.
func (r Result[M]) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON[M]{
		Available: r.IsAvailable(),
		Reason:    r.Reason(),
		Metrics:   r.metrics,
	})
}

// UnmarshalJSON восстанавливает результат из отчёта.
func (r *Result[M]) UnmarshalJSON(data []byte) error {
	var raw resultJSON[M]
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Available && raw.Metrics != nil {
		*r = Result[M]{metrics: raw.Metrics}
		return nil
	}
	*r = Unavailable[M](raw.Reason)
	return nil
}

// Report сырые метрики всех детекторов для аудита.
type Report struct {
	ELA      Result[ELAMetrics]      `json:"ela"`
	Noise    Result[NoiseMetrics]    `json:"noise_edge"`
	CopyMove Result[CopyMoveMetrics] `json:"copy_move"`
	Overlay  Result[OverlayMetrics]  `json:"overlay_text"`
	Metadata Result[MetadataMetrics] `json:"metadata"`
}

// Unavailable возвращает причины недоступности по имени детектора.
func (r Report) Unavailable() map[string]string {
	out := make(map[string]string)
	if !r.ELA.IsAvailable() {
		out[DetectorELA] = r.ELA.Reason()
	}
	if !r.Noise.IsAvailable() {
		out[DetectorNoise] = r.Noise.Reason()
	}
	if !r.CopyMove.IsAvailable() {
		out[DetectorCopyMove] = r.CopyMove.Reason()
	}
	if !r.Overlay.IsAvailable() {
		out[DetectorOverlay] = r.Overlay.Reason()
	}
	if !r.Metadata.IsAvailable() {
		out[DetectorMetadata] = r.Metadata.Reason()
	}
	return out
}
