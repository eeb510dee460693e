package i18n

var dictionaries = map[string]map[string]string{
	"en": {
		"invalid_type":       "invalid type, expected {expected}",
		"missing":            "field required",
		"required":           "field required",
		"unknown_key":        "unknown key",
		"duplicate_key":      "duplicate key",
		"too_small":          "should be greater than or equal to {min}",
		"too_big":            "should be less than or equal to {max}",
		"too_short":          "should have at least {min} characters",
		"too_long":           "should have at most {max} characters",
		"pattern":            "should match pattern {pattern}",
		"enum":               "should be one of {expected}",
		"literal_error":      "should be one of {expected}",
		"union_error":        "did not match any of {expected}",
		"constraint":         "failed on rule {rule}",
		"check":              "failed check {expr}",
		"post_init":          "post init failed",
		"parse_error":        "parse error",
		"truncated":          "truncated",
		"int_type":           "should be int",
		"int_parsing":        "should be int, unable to parse string as an integer",
		"int_from_float":     "should be int, got a non-finite or out of range number",
		"int_overflow":       "integer out of range",
		"float_type":         "should be a valid number",
		"float_parsing":      "should be a valid number, unable to parse string as a number",
		"bool_type":          "should be a valid boolean",
		"bool_parsing":       "should be a valid boolean, unable to interpret input",
		"string_type":        "should be a valid string",
		"string_unicode":     "should be a valid string, unable to decode bytes as UTF-8",
		"bytes_type":         "should be valid bytes",
		"decimal_parsing":    "should be a valid decimal",
		"datetime_parsing":   "should be a valid datetime or date",
		"date_parsing":       "should be a valid date",
		"time_delta_parsing": "should be a valid duration",
		"time_parsing":       "should be a valid time",
		"uuid_parsing":       "should be a valid UUID",
		"uuid_version":       "UUID version should be {expected}",
		"list_type":          "should be list",
		"set_type":           "should be set",
		"tuple_type":         "should be tuple",
		"dict_type":          "should be a valid mapping",
		"iter_too_short":     "{expected} should have at least {min} items, not {got}",
		"iter_too_long":      "{expected} should have at most {max} items, not {got}",
		"tuple_length":       "tuple should have exactly {expected} items, not {got}",
		"model_type":         "should be a valid {expected} object",
		"text_unmarshal":     "should be a valid {expected}",
		"iterable_type":      "should be iterable",
		"value_error":        "{detail}",
	},
	"zh": {
		"invalid_type":       "类型错误，应为{expected}",
		"missing":            "字段为必填项",
		"required":           "字段为必填项",
		"unknown_key":        "未知字段",
		"duplicate_key":      "字段重复",
		"too_small":          "应大于或等于{min}",
		"too_big":            "应小于或等于{max}",
		"too_short":          "最少应包含{min}个字符",
		"too_long":           "最多应包含{max}个字符",
		"pattern":            "应匹配模式{pattern}",
		"enum":               "输入应为 {expected}",
		"literal_error":      "输入应为 {expected}",
		"union_error":        "输入与{expected}均不匹配",
		"constraint":         "未通过规则{rule}",
		"check":              "未通过校验{expr}",
		"post_init":          "初始化后处理失败",
		"parse_error":        "解析错误",
		"truncated":          "输入被截断",
		"int_type":           "输入应为有效整数",
		"int_parsing":        "输入应为有效整数，无法将字符串解析为整数",
		"int_from_float":     "输入应为有效整数，数值无穷或超出范围",
		"int_overflow":       "整数超出范围",
		"float_type":         "输入应为有效浮点值",
		"float_parsing":      "输入应为有效数字，无法将字符串解析为数字",
		"bool_type":          "输入应为有效布尔类型",
		"bool_parsing":       "输入应为有效布尔类型",
		"string_type":        "输入应为有效字符串",
		"string_unicode":     "输入应为有效字符串，不能将原始数据解析为unicode字符串",
		"bytes_type":         "输入应为有效字节类型",
		"decimal_parsing":    "输入应为有效数值",
		"datetime_parsing":   "输入应为有效的日期时间或日期",
		"date_parsing":       "输入应为有效日期类型",
		"time_delta_parsing": "输入应为有效时间增量类型",
		"time_parsing":       "输入应为有效时间类型",
		"uuid_parsing":       "输入应为有效的UUID",
		"uuid_version":       "输入的UUID值版本错误，应为UUID版本`{expected}`",
		"list_type":          "输入应为列表类型",
		"set_type":           "输入应为集合类型",
		"tuple_type":         "输入应为元组类型",
		"dict_type":          "输入应为有效键值对",
		"iter_too_short":     "{expected}最小应包含{min}项，而不是{got}项",
		"iter_too_long":      "{expected}最多应包含{max}项，而不是{got}项",
		"tuple_length":       "元组应包含{expected}项，而不是{got}项",
		"model_type":         "输入应为有效的{expected}对象",
		"text_unmarshal":     "输入应为有效的{expected}",
		"iterable_type":      "输入应为可迭代类型",
		"value_error":        "{detail}",
	},
	"ja": {
		"invalid_type":   "型が不正です",
		"missing":        "必須プロパティが不足しています",
		"required":       "必須プロパティが不足しています",
		"unknown_key":    "未知のキーです",
		"duplicate_key":  "キーが重複しています",
		"too_short":      "短すぎます",
		"too_long":       "長すぎます",
		"parse_error":    "解析エラー",
		"truncated":      "打ち切られました",
		"int_type":       "整数である必要があります",
		"int_parsing":    "整数として解析できません",
		"list_type":      "リストである必要があります",
		"iter_too_short": "要素数が少なすぎます",
		"iter_too_long":  "要素数が多すぎます",
	},
}
