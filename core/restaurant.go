package core

// 描述性字段缺失时的兜底值。
const (
	DefaultAddress = "Malang"
	DefaultArea    = "Malang"
	DefaultCuisine = "Indonesian"
)

// Coordinate 是 WGS84 经纬度（十进制度）。
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Restaurant 是一家餐厅的记录。
//
// Popularity / QualityScore / WeightedScore 是派生字段，只在训练的特征工程阶段
// 计算一次，随模型产物一起持久化；在线查询时不会重新计算。
type Restaurant struct {
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Rating      float64 `json:"rating"`
	ReviewCount int64   `json:"review_count"`

	Address string `json:"address"`
	Area    string `json:"area"`
	Cuisine string `json:"cuisine"`
	Source  string `json:"source,omitempty"`

	Popularity    float64 `json:"popularity"`
	QualityScore  float64 `json:"quality_score"`
	WeightedScore float64 `json:"weighted_score"`
}

// Coordinate 返回餐厅坐标。
func (r *Restaurant) Coordinate() Coordinate {
	return Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}
}

// ApplyDescriptiveDefaults 为缺失的描述性字段填充兜底值。
func (r *Restaurant) ApplyDescriptiveDefaults() {
	if r.Address == "" {
		r.Address = DefaultAddress
	}
	if r.Area == "" {
		r.Area = DefaultArea
	}
	if r.Cuisine == "" {
		r.Cuisine = DefaultCuisine
	}
}
