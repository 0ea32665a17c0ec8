package viz

import (
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// MessageKey identifies one parameterized user-visible message in the
// localized bundle. Placeholders {0}, {1}, ... are substituted positionally.
type MessageKey int

const (
	MsgNoColumn MessageKey = iota
	MsgAvgSumOnlyNumeric
	MsgInvalidAggType
	MsgParseError
	MsgCannotBeInGroupBy
	MsgCannotBeInPivot
	MsgCannotBeInWhere
	MsgSelectWithAndWithoutAgg
	MsgColAggNotInSelect
	MsgCannotGroupWithoutAgg
	MsgCannotPivotWithoutAgg
	MsgAggInSelectNoPivot
	MsgFormatColNotInSelect
	MsgLabelColNotInSelect
	MsgAddColToGroupByOrAgg
	MsgAggInOrderNotInSelect
	MsgNoAggInOrderWhenPivot
	MsgColInOrderMustBeInSelect
	MsgNoColInGroupAndPivot
	MsgInvalidOffset
	MsgInvalidLimit
	MsgInvalidSkipping
	MsgColumnOnlyOnce
	MsgInvalidScalarArgs
	MsgSignIn
)

var englishMessages = map[MessageKey]string{
	MsgNoColumn:                 "Column [{0}] does not exist in table{1}",
	MsgAvgSumOnlyNumeric:        "'Avg' and 'sum' aggregation functions can be applied only on numeric columns.",
	MsgInvalidAggType:           "Aggregation type {0} cannot be applied to column [{1}].",
	MsgParseError:               "Query parse error: {0}",
	MsgCannotBeInGroupBy:        "Column [{0}] cannot appear in GROUP BY because it is aggregated.",
	MsgCannotBeInPivot:          "Column [{0}] cannot appear in PIVOT because it is aggregated.",
	MsgCannotBeInWhere:          "Column [{0}] cannot appear in WHERE because it is aggregated.",
	MsgSelectWithAndWithoutAgg:  "Column [{0}] cannot be selected both with and without aggregation in SELECT.",
	MsgColAggNotInSelect:        "Column [{0}] cannot be aggregated in ORDER BY because it is selected without aggregation.",
	MsgCannotGroupWithoutAgg:    "Cannot use GROUP BY when no aggregations are defined in SELECT.",
	MsgCannotPivotWithoutAgg:    "Cannot use PIVOT when no aggregations are defined in SELECT.",
	MsgAggInSelectNoPivot:       "Aggregation [{0}] cannot be used in ORDER BY when no aggregation columns are defined in SELECT.",
	MsgFormatColNotInSelect:     "Column [{0}] which is referenced in FORMAT, is not part of SELECT.",
	MsgLabelColNotInSelect:      "Column [{0}] which is referenced in LABEL, is not part of SELECT.",
	MsgAddColToGroupByOrAgg:     "Column [{0}] should be added to GROUP BY, removed from SELECT or aggregated in SELECT.",
	MsgAggInOrderNotInSelect:    "Aggregation [{0}] found in ORDER BY but was not found in SELECT.",
	MsgNoAggInOrderWhenPivot:    "Aggregation [{0}] cannot appear in ORDER BY when PIVOT is used.",
	MsgColInOrderMustBeInSelect: "Column [{0}] which appears in ORDER BY, must be in SELECT as well, because SELECT contains aggregated columns.",
	MsgNoColInGroupAndPivot:     "Column [{0}] cannot appear both in GROUP BY and in PIVOT.",
	MsgInvalidOffset:            "Invalid value for row offset: {0}",
	MsgInvalidLimit:             "Invalid value for row limit: {0}",
	MsgInvalidSkipping:          "Invalid value for row skipping: {0}",
	MsgColumnOnlyOnce:           "Column [{0}] cannot appear more than once in {1}.",
	MsgInvalidScalarArgs:        "Invalid arguments to function {0}: {1}",
	MsgSignIn:                   "Sign in",
}

var englishReasons = map[ReasonType]string{
	ReasonOther:                     "Error",
	ReasonAccessDenied:              "Access denied",
	ReasonUserNotAuthenticated:      "User not signed in",
	ReasonUnsupportedQueryOperation: "Unsupported query operation",
	ReasonInvalidQuery:              "Invalid query",
	ReasonInvalidRequest:            "Invalid request",
	ReasonInternalError:             "Internal error",
	ReasonNotSupported:              "Operation not supported",
	ReasonDataTruncated:             "Retrieved data was truncated",
	ReasonNotModified:               "Data not modified",
	ReasonTimeout:                   "Request timed out",
	ReasonIllegalFormattingPatterns: "Illegal formatting patterns",
}

type bundle struct {
	messages map[MessageKey]string
	reasons  map[ReasonType]string
}

var (
	bundleMu      sync.RWMutex
	bundleTags    = []language.Tag{language.English}
	bundles       = map[language.Tag]*bundle{language.English: {englishMessages, englishReasons}}
	bundleMatcher = language.NewMatcher(bundleTags)
)

// RegisterMessages installs a message bundle for a locale. Either map may be
// nil or partial; missing entries fall back to English. Registration is meant
// for process startup and replaces any bundle previously installed for the
// same tag.
func RegisterMessages(tag language.Tag, messages map[MessageKey]string, reasons map[ReasonType]string) {
	bundleMu.Lock()
	defer bundleMu.Unlock()
	if _, ok := bundles[tag]; !ok {
		bundleTags = append(bundleTags, tag)
		bundleMatcher = language.NewMatcher(bundleTags)
	}
	bundles[tag] = &bundle{messages: messages, reasons: reasons}
}

func bundleFor(loc language.Tag) *bundle {
	_, i, _ := bundleMatcher.Match(loc)
	return bundles[bundleTags[i]]
}

// Message renders the bundle message for key in the closest registered
// locale, substituting {i} placeholders with args.
func Message(loc language.Tag, key MessageKey, args ...string) string {
	bundleMu.RLock()
	b := bundleFor(loc)
	tpl, ok := b.messages[key]
	bundleMu.RUnlock()
	if !ok {
		tpl = englishMessages[key]
	}
	return substitute(tpl, args)
}

func reasonMessage(loc language.Tag, r ReasonType) string {
	bundleMu.RLock()
	b := bundleFor(loc)
	msg, ok := b.reasons[r]
	bundleMu.RUnlock()
	if !ok {
		msg = englishReasons[r]
	}
	return msg
}

func substitute(tpl string, args []string) string {
	for i, a := range args {
		tpl = strings.ReplaceAll(tpl, "{"+strconv.Itoa(i)+"}", a)
	}
	return tpl
}
