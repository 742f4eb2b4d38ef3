package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusAccepted - 202: 已受理, 等待审批.
	StatusAccepted = 202
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusConflict - 409: 状态冲突.
	StatusConflict = 409
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
	// ErrForbidden - 403: 缺少权限.
	ErrForbidden
	// ErrFeatureDisabled - 403: 功能未启用.
	ErrFeatureDisabled
)

// 用户相关错误码 (101xxx).
const (
	// ErrUserNotFound - 404: 用户不存在.
	ErrUserNotFound int = iota + 101000
	// ErrUserAlreadyExist - 400: 用户已存在.
	ErrUserAlreadyExist
	// ErrUserPasswordIncorrect - 401: 用户密码错误.
	ErrUserPasswordIncorrect
)

// 公民相关错误码 (102xxx).
const (
	// ErrCitizenNotFound - 404
	ErrCitizenNotFound int = iota + 102000
	// ErrVehicleNotFound - 404
	ErrVehicleNotFound
	// ErrWeaponNotFound - 404
	ErrWeaponNotFound
	// ErrInvalidFlag - 400: flag id is not a value of the expected type.
	ErrInvalidFlag
	// ErrPlateTaken - 409
	ErrPlateTaken
	// ErrSerialNumberTaken - 409
	ErrSerialNumberTaken
)

// 单位相关错误码 (103xxx).
const (
	// ErrUnitNotFound - 404
	ErrUnitNotFound int = iota + 103000
	// ErrStatusNotFound - 404
	ErrStatusNotFound
	// ErrUnitOffDuty - 400
	ErrUnitOffDuty
	// ErrUnitAlreadyCombined - 409
	ErrUnitAlreadyCombined
	// ErrInvalidUnitKind - 400
	ErrInvalidUnitKind
	// ErrNotEnoughUnits - 400: combining needs two or more members.
	ErrNotEnoughUnits
	// ErrUnitNotOwned - 403
	ErrUnitNotOwned
)

// 呼叫相关错误码 (104xxx).
const (
	// ErrCallNotFound - 404: 呼叫记录不存在.
	ErrCallNotFound int = iota + 104000
	// ErrCallAlreadyEnded - 409
	ErrCallAlreadyEnded
	// ErrUnitAlreadyAssigned - 409
	ErrUnitAlreadyAssigned
	// ErrUnitNotAssigned - 409
	ErrUnitNotAssigned
	// ErrInvalidCallKind - 400: only tow and taxi.
	ErrInvalidCallKind
)

// 数据库相关错误码 (105xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)

// 事件相关错误码 (106xxx).
const (
	// ErrIncidentNotFound - 404
	ErrIncidentNotFound int = iota + 106000
)

// 通缉令相关错误码 (107xxx).
const (
	// ErrWarrantNotFound - 404
	ErrWarrantNotFound int = iota + 107000
	// ErrWarrantApprovalRequired - 202: persisted, waiting for review.
	ErrWarrantApprovalRequired
	// ErrWarrantNotPending - 409
	ErrWarrantNotPending
)

// 数值相关错误码 (108xxx).
const (
	// ErrValueNotFound - 404
	ErrValueNotFound int = iota + 108000
	// ErrInvalidValueType - 400
	ErrInvalidValueType
	// ErrInvalidShouldDo - 400
	ErrInvalidShouldDo
	// ErrInvalidFeature - 400
	ErrInvalidFeature
)

// 档案相关错误码 (109xxx).
const (
	// ErrCadRecordNotFound - 404
	ErrCadRecordNotFound int = iota + 109000
	// ErrPenalCodeNotFound - 400
	ErrPenalCodeNotFound
	// ErrInvalidRecordType - 400
	ErrInvalidRecordType
)
