package analysis

import (
	"math"
	"sync"

	"github.com/shopware/phpflow/internal/phptype"
	"github.com/shopware/phpflow/internal/phpvalue"
)

// builtinReturns holds the return types of common PHP functions.
var builtinReturns = map[string]string{
	"strlen":            "int",
	"count":             "int",
	"sizeof":            "int",
	"intval":            "int",
	"floatval":          "float",
	"strval":            "string",
	"boolval":           "bool",
	"strtolower":        "string",
	"strtoupper":        "string",
	"ucfirst":           "string",
	"lcfirst":           "string",
	"ucwords":           "string",
	"trim":              "string",
	"ltrim":             "string",
	"rtrim":             "string",
	"substr":            "string",
	"str_repeat":        "string",
	"str_pad":           "string",
	"sprintf":           "string",
	"implode":           "string",
	"join":              "string",
	"explode":           "array",
	"str_split":         "array",
	"str_replace":       "string|array",
	"preg_replace":      "string|array|null",
	"preg_match":        "int|false",
	"preg_match_all":    "int|false",
	"preg_split":        "array|false",
	"preg_quote":        "string",
	"strpos":            "int|false",
	"stripos":           "int|false",
	"strrpos":           "int|false",
	"str_contains":      "bool",
	"str_starts_with":   "bool",
	"str_ends_with":     "bool",
	"number_format":     "string",
	"htmlspecialchars":  "string",
	"md5":               "string",
	"sha1":              "string",
	"uniqid":            "string",
	"json_encode":       "string|false",
	"json_decode":       "mixed",
	"serialize":         "string",
	"unserialize":       "mixed",
	"in_array":          "bool",
	"array_key_exists":  "bool",
	"array_keys":        "array",
	"array_values":      "array",
	"array_merge":       "array",
	"array_map":         "array",
	"array_filter":      "array",
	"array_slice":       "array",
	"array_unique":      "array",
	"array_reverse":     "array",
	"array_combine":     "array",
	"array_flip":        "array",
	"array_fill":        "array",
	"array_column":      "array",
	"array_diff":        "array",
	"array_intersect":   "array",
	"range":             "array",
	"compact":           "array",
	"func_get_args":     "array",
	"array_search":      "int|string|false",
	"array_sum":         "int|float",
	"abs":               "int|float",
	"round":             "float",
	"floor":             "float",
	"ceil":              "float",
	"sqrt":              "float",
	"time":              "int",
	"random_int":        "int",
	"rand":              "int",
	"mt_rand":           "int",
	"date":              "string",
	"gettype":           "string",
	"get_class":         "string",
	"spl_object_hash":   "string",
	"dirname":           "string",
	"basename":          "string",
	"realpath":          "string|false",
	"file_get_contents": "string|false",
	"file_put_contents": "int|false",
	"file_exists":       "bool",
	"is_file":           "bool",
	"is_dir":            "bool",
	"function_exists":   "bool",
	"class_exists":      "bool",
	"method_exists":     "bool",
	"property_exists":   "bool",
	"is_numeric":        "bool",
	"is_int":            "bool",
	"is_integer":        "bool",
	"is_long":           "bool",
	"is_float":          "bool",
	"is_double":         "bool",
	"is_string":         "bool",
	"is_bool":           "bool",
	"is_null":           "bool",
	"is_array":          "bool",
	"is_iterable":       "bool",
	"is_object":         "bool",
	"is_callable":       "bool",
	"isset":             "bool",
	"empty":             "bool",
	"var_dump":          "void",
	"exit":              "never",
	"die":               "never",
}

var (
	builtinTypesOnce sync.Once
	builtinTypes     map[string]phptype.UnionType
)

func builtinReturnType(name string) (phptype.UnionType, bool) {
	builtinTypesOnce.Do(func() {
		builtinTypes = make(map[string]phptype.UnionType, len(builtinReturns))
		for fn, text := range builtinReturns {
			builtinTypes[fn] = phptype.MustParse(text)
		}
	})
	t, ok := builtinTypes[name]
	return t, ok
}

// builtinOutParams lists the by-reference parameters PHP functions write to without
// reading, with the type they store.
var builtinOutParams = map[string]map[int]string{
	"preg_match":     {2: "array"},
	"preg_match_all": {2: "array"},
	"preg_replace":   {4: "int"},
	"str_replace":    {3: "int"},
	"str_ireplace":   {3: "int"},
	"parse_str":      {1: "array"},
	"exec":           {1: "array", 2: "int"},
	"similar_text":   {2: "float"},
}

// builtinConstants holds the values of predefined constants.
var builtinConstants = map[string]phpvalue.Value{
	"PHP_EOL":           phpvalue.String("\n"),
	"PHP_INT_MAX":       phpvalue.Int(math.MaxInt64),
	"PHP_INT_MIN":       phpvalue.Int(math.MinInt64),
	"PHP_INT_SIZE":      phpvalue.Int(8),
	"PHP_FLOAT_EPSILON": phpvalue.Float(math.Nextafter(1, 2) - 1),
	"M_PI":              phpvalue.Float(math.Pi),
	"M_E":               phpvalue.Float(math.E),
}

// superglobals are defined in every scope.
var superglobals = map[string]bool{
	"GLOBALS":  true,
	"_GET":     true,
	"_POST":    true,
	"_COOKIE":  true,
	"_FILES":   true,
	"_SERVER":  true,
	"_ENV":     true,
	"_REQUEST": true,
	"_SESSION": true,
}
