package character

import "strings"

// nicknames maps common English short forms to the full names they usually
// stand for. Used by CHAR004 to flag likely-but-undeclared alias pairs.
var nicknames = map[string][]string{
	"abby":   {"abigail"},
	"alex":   {"alexander", "alexandra"},
	"andy":   {"andrew"},
	"becky":  {"rebecca"},
	"ben":    {"benjamin"},
	"beth":   {"elizabeth"},
	"bill":   {"william"},
	"bob":    {"robert"},
	"bobby":  {"robert"},
	"charlie": {"charles", "charlotte"},
	"chris":  {"christopher", "christine", "christina"},
	"dan":    {"daniel"},
	"danny":  {"daniel"},
	"dave":   {"david"},
	"dick":   {"richard"},
	"drew":   {"andrew"},
	"ed":     {"edward"},
	"eddie":  {"edward"},
	"fred":   {"frederick"},
	"hank":   {"henry"},
	"harry":  {"harold", "henry"},
	"jack":   {"john"},
	"jamie":  {"james"},
	"jen":    {"jennifer"},
	"jenny":  {"jennifer"},
	"jim":    {"james"},
	"joe":    {"joseph"},
	"joey":   {"joseph"},
	"kate":   {"katherine", "kathryn"},
	"katie":  {"katherine", "kathryn"},
	"liz":    {"elizabeth"},
	"lizzy":  {"elizabeth"},
	"maggie": {"margaret"},
	"matt":   {"matthew"},
	"meg":    {"margaret"},
	"mike":   {"michael"},
	"molly":  {"mary"},
	"nate":   {"nathan", "nathaniel"},
	"ned":    {"edward"},
	"nick":   {"nicholas"},
	"peggy":  {"margaret"},
	"rick":   {"richard"},
	"rob":    {"robert"},
	"sally":  {"sarah"},
	"sam":    {"samuel", "samantha"},
	"steve":  {"steven", "stephen"},
	"sue":    {"susan"},
	"ted":    {"edward", "theodore"},
	"tim":    {"timothy"},
	"tom":    {"thomas"},
	"tony":   {"anthony"},
	"will":   {"william"},
	"zach":   {"zachary"},
}

// nicknameRelated reports whether two names look like a nickname pair: the
// first word of one is a known short form of the first word of the other,
// and any remaining words (family names) match.
func nicknameRelated(a, b string) bool {
	aw := strings.Fields(strings.ToLower(a))
	bw := strings.Fields(strings.ToLower(b))
	if len(aw) == 0 || len(bw) == 0 {
		return false
	}
	if len(aw) > 1 && len(bw) > 1 && !equalTail(aw[1:], bw[1:]) {
		return false
	}
	return isShortFormOf(aw[0], bw[0]) || isShortFormOf(bw[0], aw[0])
}

func isShortFormOf(short, full string) bool {
	for _, f := range nicknames[short] {
		if f == full {
			return true
		}
	}
	return false
}

func equalTail(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
