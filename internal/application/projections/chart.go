package projections

// Chart is the payload consumed by the client-side charting library.
type Chart struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// ChartDataset is one series of a Chart. Nil data points are sent as null.
type ChartDataset struct {
	Label           string     `json:"label"`
	Data            []*float64 `json:"data"`
	BackgroundColor string     `json:"backgroundColor"`
	BorderColor     string     `json:"borderColor"`
	BorderWidth     int        `json:"borderWidth"`
}

// Series colours, fill then border.
var (
	colorBlue   = [2]string{"rgba(54, 162, 235, 0.6)", "rgba(54, 162, 235, 1)"}
	colorOrange = [2]string{"rgba(255, 159, 64, 0.6)", "rgba(255, 159, 64, 1)"}
	colorGreen  = [2]string{"rgba(75, 192, 192, 0.6)", "rgba(75, 192, 192, 1)"}
)

func newDataset(label string, data []*float64, color [2]string) ChartDataset {
	if data == nil {
		data = []*float64{}
	}
	return ChartDataset{
		Label:           label,
		Data:            data,
		BackgroundColor: color[0],
		BorderColor:     color[1],
		BorderWidth:     1,
	}
}
