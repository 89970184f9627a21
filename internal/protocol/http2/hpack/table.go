package hpack

// entryOverhead is the per-entry accounting overhead of the dynamic table
// (RFC 7541 section 4.1).
const entryOverhead = 32

type tableEntry struct {
	name, value string
}

func (e tableEntry) size() uint32 {
	return uint32(len(e.name)+len(e.value)) + entryOverhead
}

// staticTable is the fixed lookup table of RFC 7541 Appendix A. Index 1 is
// staticTable[0].
var staticTable = [...]tableEntry{
	{":authority", ""},
	{":method", "GET"},
	{":method", "POST"},
	{":path", "/"},
	{":path", "/index.html"},
	{":scheme", "http"},
	{":scheme", "https"},
	{":status", "200"},
	{":status", "204"},
	{":status", "206"},
	{":status", "304"},
	{":status", "400"},
	{":status", "404"},
	{":status", "500"},
	{"accept-charset", ""},
	{"accept-encoding", "gzip, deflate"},
	{"accept-language", ""},
	{"accept-ranges", ""},
	{"accept", ""},
	{"access-control-allow-origin", ""},
	{"age", ""},
	{"allow", ""},
	{"authorization", ""},
	{"cache-control", ""},
	{"content-disposition", ""},
	{"content-encoding", ""},
	{"content-language", ""},
	{"content-length", ""},
	{"content-location", ""},
	{"content-range", ""},
	{"content-type", ""},
	{"cookie", ""},
	{"date", ""},
	{"etag", ""},
	{"expect", ""},
	{"expires", ""},
	{"from", ""},
	{"host", ""},
	{"if-match", ""},
	{"if-modified-since", ""},
	{"if-none-match", ""},
	{"if-range", ""},
	{"if-unmodified-since", ""},
	{"last-modified", ""},
	{"link", ""},
	{"location", ""},
	{"max-forwards", ""},
	{"proxy-authenticate", ""},
	{"proxy-authorization", ""},
	{"range", ""},
	{"referer", ""},
	{"refresh", ""},
	{"retry-after", ""},
	{"server", ""},
	{"set-cookie", ""},
	{"strict-transport-security", ""},
	{"transfer-encoding", ""},
	{"user-agent", ""},
	{"vary", ""},
	{"via", ""},
	{"www-authenticate", ""},
}

// dynamicTable holds recently seen fields, newest first. Entry sizes are
// accounted with the 32-octet overhead, and insertion evicts from the oldest
// end until the new entry fits.
type dynamicTable struct {
	entries  []tableEntry
	size     uint32
	capacity uint32
}

func (t *dynamicTable) insert(name, value string) {
	e := tableEntry{name: name, value: value}

	esize := e.size()
	if esize > t.capacity {
		// an entry bigger than the whole table empties it
		t.entries = t.entries[:0]
		t.size = 0
		return
	}

	t.evict(t.capacity - esize)
	t.entries = append(t.entries, tableEntry{})
	copy(t.entries[1:], t.entries)
	t.entries[0] = e
	t.size += esize
}

func (t *dynamicTable) setCapacity(capacity uint32) {
	t.capacity = capacity
	t.evict(capacity)
}

func (t *dynamicTable) evict(limit uint32) {
	for t.size > limit {
		last := len(t.entries) - 1
		t.size -= t.entries[last].size()
		t.entries = t.entries[:last]
	}
}

// lookup resolves an HPACK index against the static table (1..61) and then
// the dynamic one (62 onwards).
func (t *dynamicTable) lookup(index uint64) (tableEntry, bool) {
	if index == 0 {
		return tableEntry{}, false
	}

	if index <= uint64(len(staticTable)) {
		return staticTable[index-1], true
	}

	dyn := index - uint64(len(staticTable)) - 1
	if dyn >= uint64(len(t.entries)) {
		return tableEntry{}, false
	}

	return t.entries[dyn], true
}
