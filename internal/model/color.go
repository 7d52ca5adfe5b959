package model

// MemberColors is the palette member colors are drawn from.
var MemberColors = [...]string{
	"#4f86f7", "#f76f4f", "#4fc97e", "#f7c24f", "#b44ff7",
	"#4ff7e8", "#f74f9e", "#8bc34a", "#ff7043", "#7e57c2",
}

// NextColor returns the first palette color no member uses yet. Once the
// palette is exhausted colors repeat in member order.
func NextColor(members []Member) string {
	used := make(map[string]struct{}, len(members))
	for _, m := range members {
		used[m.Color] = struct{}{}
	}
	for _, c := range MemberColors {
		if _, ok := used[c]; !ok {
			return c
		}
	}
	return MemberColors[len(members)%len(MemberColors)]
}
