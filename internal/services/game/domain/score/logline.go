package score

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/player"
	"github.com/louisbranch/undercroft/internal/services/game/domain/tag"
)

// ErrMalformedLogline reports a logfile line that cannot be parsed.
var ErrMalformedLogline = errors.New("malformed logline")

const logTimeFormat = "20060102150405"

// Logline renders the entry as colon separated key=value pairs. Colons in
// values are doubled.
func (e Entry) Logline() string {
	fields := [][2]string{
		{"v", tag.Current().String()},
		{"id", e.ID.String()},
		{"game", e.GameID.String()},
		{"name", e.Name},
		{"race", e.Species.String()},
		{"cls", e.Job},
		{"god", e.God.String()},
		{"xl", strconv.Itoa(e.XL)},
		{"place", e.Place.String()},
		{"sc", strconv.FormatInt(e.Points, 10)},
		{"dam", strconv.Itoa(e.Damage)},
		{"hp", strconv.Itoa(e.HP)},
		{"mhp", strconv.Itoa(e.HPMax)},
		{"ktyp", e.Method.String()},
		{"killer", e.Killer},
		{"kaux", e.Aux},
		{"turn", strconv.Itoa(e.Turns)},
		{"start", e.Start.UTC().Format(logTimeFormat)},
		{"end", e.End.UTC().Format(logTimeFormat)},
		{"lives", strconv.Itoa(e.Lives)},
		{"deaths", strconv.Itoa(e.Deaths)},
		{"tmsg", e.DeathDescription(Normal)},
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		parts = append(parts, f[0]+"="+strings.ReplaceAll(f[1], ":", "::"))
	}
	return strings.Join(parts, ":")
}

// ParseLogline reads the fields of a logline.
func ParseLogline(line string) (map[string]string, error) {
	fields := map[string]string{}
	var cur strings.Builder
	flush := func() error {
		field := cur.String()
		cur.Reset()
		if field == "" {
			return nil
		}
		key, value, ok := strings.Cut(field, "=")
		if !ok || key == "" {
			return fmt.Errorf("%w: field %q", ErrMalformedLogline, field)
		}
		fields[key] = value
		return nil
	}
	for i := 0; i < len(line); i++ {
		if line[i] != ':' {
			cur.WriteByte(line[i])
			continue
		}
		if i+1 < len(line) && line[i+1] == ':' {
			cur.WriteByte(':')
			i++
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return fields, nil
}

// EntryFromLogline rebuilds the stored parts of an entry.
func EntryFromLogline(line string) (Entry, error) {
	f, err := ParseLogline(line)
	if err != nil {
		return Entry{}, err
	}
	var e Entry
	var errs []error
	parseInt := func(key string) int {
		if f[key] == "" {
			return 0
		}
		n, err := strconv.Atoi(f[key])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return n
	}
	parseTime := func(key string) time.Time {
		if f[key] == "" {
			return time.Time{}
		}
		t, err := time.Parse(logTimeFormat, f[key])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return t
	}
	if e.ID, err = ulid.Parse(f["id"]); err != nil {
		errs = append(errs, fmt.Errorf("id: %w", err))
	}
	if f["game"] != "" {
		if e.GameID, err = uuid.Parse(f["game"]); err != nil {
			errs = append(errs, fmt.Errorf("game: %w", err))
		}
	}
	e.Name = f["name"]
	if s, ok := player.ParseSpecies(f["race"]); ok {
		e.Species = s
	}
	e.Job = f["cls"]
	e.XL = parseInt("xl")
	if f["place"] != "" {
		if e.Place, err = level.ParseID(f["place"]); err != nil {
			errs = append(errs, fmt.Errorf("place: %w", err))
		}
	}
	if f["sc"] != "" {
		if e.Points, err = strconv.ParseInt(f["sc"], 10, 64); err != nil {
			errs = append(errs, fmt.Errorf("sc: %w", err))
		}
	}
	e.Damage = parseInt("dam")
	e.HP = parseInt("hp")
	e.HPMax = parseInt("mhp")
	method, ok := ParseKillMethod(f["ktyp"])
	if !ok {
		errs = append(errs, fmt.Errorf("ktyp: unknown %q", f["ktyp"]))
	}
	e.Method = method
	e.Killer = f["killer"]
	e.Aux = f["kaux"]
	e.Turns = parseInt("turn")
	e.Start = parseTime("start")
	e.End = parseTime("end")
	e.Lives = parseInt("lives")
	e.Deaths = parseInt("deaths")
	if len(errs) > 0 {
		return Entry{}, fmt.Errorf("%w: %w", ErrMalformedLogline, errors.Join(errs...))
	}
	return e, nil
}
