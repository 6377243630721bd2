package cachectl

import (
	"time"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
)

const dateLayout = "2006-01-02"

// defaultFetchStart returns the Monday (local timezone) at 00:00:00 of
// the week containing now (spec §4.7).
func defaultFetchStart() time.Time {
	return mondayOf(time.Now())
}

func mondayOf(t time.Time) time.Time {
	t = t.Local()
	offset := int(t.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// toDateString renders the covered-set key for a since timestamp.
func toDateString(t time.Time) string {
	return t.Local().Format(dateLayout)
}

// coveredSet is the controller's ordered set of covered date strings,
// backed by gods' red-black-tree set for a sorted GetCachedRanges.
type coveredSet struct {
	set *treeset.Set
}

func newCoveredSet() *coveredSet {
	return &coveredSet{set: treeset.NewWith(utils.StringComparator)}
}

func (c *coveredSet) Add(date string)         { c.set.Add(date) }
func (c *coveredSet) Contains(date string) bool { return c.set.Contains(date) }
func (c *coveredSet) Clear()                   { c.set.Clear() }

func (c *coveredSet) Sorted() []string {
	values := c.set.Values()
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.(string))
	}
	return out
}
