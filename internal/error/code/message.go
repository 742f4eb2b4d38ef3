package code

type entry struct {
	key     string
	message string
	status  int
}

// 错误码映射: reason key, message and HTTP status
var codeMap = map[int]entry{
	// 通用错误码
	ErrSuccess:         {"success", "success", StatusOK},
	ErrUnknown:         {"unknown", "unknown error", StatusInternalServerError},
	ErrBind:            {"badRequest", "request body could not be parsed", StatusBadRequest},
	ErrValidation:      {"validationError", "request validation failed", StatusBadRequest},
	ErrTokenInvalid:    {"invalidToken", "invalid or expired token", StatusUnauthorized},
	ErrTooManyRequests: {"tooManyRequests", "too many requests", StatusTooManyRequests},
	ErrForbidden:       {"forbidden", "missing permission", StatusForbidden},
	ErrFeatureDisabled: {"featureDisabled", "feature is disabled", StatusForbidden},

	// 用户相关错误码
	ErrUserNotFound:          {"userNotFound", "user not found", StatusNotFound},
	ErrUserAlreadyExist:      {"userAlreadyExists", "username is taken", StatusBadRequest},
	ErrUserPasswordIncorrect: {"passwordIncorrect", "username or password incorrect", StatusUnauthorized},

	// 公民相关错误码
	ErrCitizenNotFound:   {"citizenNotFound", "citizen not found", StatusNotFound},
	ErrVehicleNotFound:   {"vehicleNotFound", "vehicle not found", StatusNotFound},
	ErrWeaponNotFound:    {"weaponNotFound", "weapon not found", StatusNotFound},
	ErrInvalidFlag:       {"invalidFlag", "flag does not exist", StatusBadRequest},
	ErrPlateTaken:        {"plateAlreadyInUse", "plate is already registered", StatusConflict},
	ErrSerialNumberTaken: {"serialNumberInUse", "serial number is already registered", StatusConflict},

	// 单位相关错误码
	ErrUnitNotFound:        {"unitNotFound", "unit not found", StatusNotFound},
	ErrStatusNotFound:      {"statusNotFound", "status code not found", StatusNotFound},
	ErrUnitOffDuty:         {"unitOffDuty", "unit is off duty", StatusBadRequest},
	ErrUnitAlreadyCombined: {"unitAlreadyCombined", "unit is already part of a combined unit", StatusConflict},
	ErrInvalidUnitKind:     {"invalidUnitKind", "unknown unit kind", StatusBadRequest},
	ErrNotEnoughUnits:      {"notEnoughUnits", "at least two units are required", StatusBadRequest},
	ErrUnitNotOwned:        {"unitNotOwned", "unit belongs to another user", StatusForbidden},

	// 呼叫相关错误码
	ErrCallNotFound:        {"callNotFound", "call not found", StatusNotFound},
	ErrCallAlreadyEnded:    {"callAlreadyEnded", "call has already ended", StatusConflict},
	ErrUnitAlreadyAssigned: {"unitAlreadyAssigned", "unit is already assigned", StatusConflict},
	ErrUnitNotAssigned:     {"unitNotAssigned", "unit is not assigned", StatusConflict},
	ErrInvalidCallKind:     {"invalidCallKind", "unknown call kind", StatusBadRequest},

	// 数据库相关错误码
	ErrDatabase:       {"databaseError", "database error", StatusInternalServerError},
	ErrRecordNotFound: {"notFound", "record not found", StatusNotFound},

	// 事件相关错误码
	ErrIncidentNotFound: {"incidentNotFound", "incident not found", StatusNotFound},

	// 通缉令相关错误码
	ErrWarrantNotFound:         {"warrantNotFound", "warrant not found", StatusNotFound},
	ErrWarrantApprovalRequired: {"warrantApprovalRequired", "warrant is waiting for approval", StatusAccepted},
	ErrWarrantNotPending:       {"warrantNotPending", "warrant is not pending approval", StatusConflict},

	// 数值相关错误码
	ErrValueNotFound:    {"valueNotFound", "value not found", StatusNotFound},
	ErrInvalidValueType: {"invalidValueType", "unknown value type", StatusBadRequest},
	ErrInvalidShouldDo:  {"invalidShouldDo", "unknown status action", StatusBadRequest},
	ErrInvalidFeature:   {"invalidFeature", "unknown feature", StatusBadRequest},

	// 档案相关错误码
	ErrCadRecordNotFound: {"recordNotFound", "record not found", StatusNotFound},
	ErrPenalCodeNotFound: {"penalCodeNotFound", "penal code not found", StatusBadRequest},
	ErrInvalidRecordType: {"invalidRecordType", "unknown record type", StatusBadRequest},
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if e, ok := codeMap[code]; ok {
		return e.message
	}
	return "unknown error"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if e, ok := codeMap[code]; ok {
		return e.status
	}
	return StatusInternalServerError
}

// GetKey returns the stable reason key clients branch on
func GetKey(code int) string {
	if e, ok := codeMap[code]; ok {
		return e.key
	}
	return "unknown"
}
