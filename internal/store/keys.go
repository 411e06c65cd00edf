package store

import (
	"strconv"
	"strings"

	"github.com/quillbook/quillbook-server/internal/domain"
)

// Collection names that are not content kinds.
const (
	CollectionParts     = "parts"
	CollectionNoteCards = "notecards"
	collectionWorks     = "works"
)

// ContentKey derives the key of one work-scoped collection:
// {scope}-{contentKind}-{workId}-{userKey}.
func ContentKey(scope domain.Scope, collection string, workID int, userKey string) string {
	var b strings.Builder
	b.Grow(len(scope) + len(collection) + len(userKey) + 8)
	b.WriteString(string(scope))
	b.WriteByte('-')
	b.WriteString(collection)
	b.WriteByte('-')
	b.WriteString(strconv.Itoa(workID))
	b.WriteByte('-')
	b.WriteString(userKey)
	return b.String()
}

// ItemsKey is ContentKey for a content kind.
func ItemsKey(scope domain.Scope, kind domain.ContentKind, workID int, userKey string) string {
	return ContentKey(scope, string(kind), workID, userKey)
}

// WorksKey holds the list of a user's works in one scope.
func WorksKey(scope domain.Scope, userKey string) string {
	return string(scope) + "-" + collectionWorks + "-" + userKey
}

// PlanKey holds a user's plan record.
func PlanKey(userKey string) string {
	return "plan-" + userKey
}

// ActivityKey holds a user's recent-activity log. The log spans both scopes.
func ActivityKey(userKey string) string {
	return "recentActivity-" + userKey
}

// WorkCollectionKeys lists every collection key owned by one work, for
// cleanup when the work is deleted.
func WorkCollectionKeys(scope domain.Scope, workID int, userKey string) []string {
	keys := make([]string, 0, len(domain.ContentKinds)+2)
	for _, kind := range domain.ContentKinds {
		keys = append(keys, ItemsKey(scope, kind, workID, userKey))
	}
	return append(keys,
		ContentKey(scope, CollectionParts, workID, userKey),
		ContentKey(scope, CollectionNoteCards, workID, userKey),
	)
}

// ParseItemsKey is the inverse of ItemsKey. ok is false for keys of other
// collections.
func ParseItemsKey(key string) (scope domain.Scope, kind domain.ContentKind, workID int, userKey string, ok bool) {
	parts := strings.SplitN(key, "-", 4)
	if len(parts) != 4 {
		return "", "", 0, "", false
	}
	scope, kind = domain.Scope(parts[0]), domain.ContentKind(parts[1])
	if !scope.Valid() || !kind.Valid() || parts[3] == "" {
		return "", "", 0, "", false
	}
	workID, err := strconv.Atoi(parts[2])
	if err != nil || workID <= 0 {
		return "", "", 0, "", false
	}
	return scope, kind, workID, parts[3], true
}
