package clip

// SortDirection orders clips by creation time.
type SortDirection string

const (
	SortDesc SortDirection = "DESC"
	SortAsc  SortDirection = "ASC"
)

// Query parameter values used by the manage view.
const (
	SortParamNewest = "1"
	SortParamOldest = "2"
)

// ParseSortParam maps "2" to ascending and everything else to descending.
func ParseSortParam(value string) SortDirection {
	if value == SortParamOldest {
		return SortAsc
	}
	return SortDesc
}

func (d SortDirection) Param() string {
	if d == SortAsc {
		return SortParamOldest
	}
	return SortParamNewest
}

func (d SortDirection) Valid() bool {
	return d == SortAsc || d == SortDesc
}
