package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 使用场景：
//   - 训练：DATA_UNAVAILABLE, EMPTY_CORPUS, RECORD_VALIDATION_SKIP
//   - 服务：MODEL_NOT_LOADED
//   - 地理编码：GEOCODE_NOT_FOUND
//   - Store / 索引 / Scaler：NOT_FOUND, NOT_SUPPORTED, INVALID_INPUT
type DomainError struct {
	Code    string // 错误代码（如 "EMPTY_CORPUS", "MODEL_NOT_LOADED"）
	Message string // 错误消息
	Module  string // 模块名称（如 "train", "engine", "index"）
	Err     error  // 底层原因（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is 按 Module + Code 判等，便于 errors.Is(err, ErrModelNotLoaded) 这类比较。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && (t.Module == "" || e.Module == t.Module)
}

// IsDomainError 检查错误链中是否有 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的第一个 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建携带底层原因的领域错误
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	ErrorCodeDataUnavailable = "DATA_UNAVAILABLE"       // 训练输入不可读
	ErrorCodeEmptyCorpus     = "EMPTY_CORPUS"           // 清洗后没有有效记录
	ErrorCodeModelNotLoaded  = "MODEL_NOT_LOADED"       // 没有可用的模型产物
	ErrorCodeGeocodeNotFound = "GEOCODE_NOT_FOUND"      // 地名无法解析为坐标
	ErrorCodeRecordSkip      = "RECORD_VALIDATION_SKIP" // 单条记录校验失败（非致命）
)

// 模块名称常量
const (
	ModuleStore    = "store"
	ModuleDataset  = "dataset"
	ModuleFeature  = "feature"
	ModuleIndex    = "index"
	ModuleArtifact = "artifact"
	ModuleTrain    = "train"
	ModuleEngine   = "engine"
	ModuleGeocode  = "geocode"
)

// 预定义错误，可直接用于 errors.Is 比较（Module 为空时只比较 Code）。
var (
	ErrDataUnavailable = NewDomainError("", ErrorCodeDataUnavailable, "training data unavailable")
	ErrEmptyCorpus     = NewDomainError("", ErrorCodeEmptyCorpus, "no valid records after cleaning")
	ErrModelNotLoaded  = NewDomainError("", ErrorCodeModelNotLoaded, "model artifact not loaded")
	ErrGeocodeNotFound = NewDomainError("", ErrorCodeGeocodeNotFound, "no coordinates for place")
	ErrRecordSkip      = NewDomainError("", ErrorCodeRecordSkip, "record failed validation")
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsDataUnavailable 检查错误是否为 DATA_UNAVAILABLE
func IsDataUnavailable(err error) bool { return hasCode(err, ErrorCodeDataUnavailable) }

// IsEmptyCorpus 检查错误是否为 EMPTY_CORPUS
func IsEmptyCorpus(err error) bool { return hasCode(err, ErrorCodeEmptyCorpus) }

// IsModelNotLoaded 检查错误是否为 MODEL_NOT_LOADED
func IsModelNotLoaded(err error) bool { return hasCode(err, ErrorCodeModelNotLoaded) }

// IsGeocodeNotFound 检查错误是否为 GEOCODE_NOT_FOUND
func IsGeocodeNotFound(err error) bool { return hasCode(err, ErrorCodeGeocodeNotFound) }

// IsRecordSkip 检查错误是否为 RECORD_VALIDATION_SKIP
func IsRecordSkip(err error) bool { return hasCode(err, ErrorCodeRecordSkip) }
