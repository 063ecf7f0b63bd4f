package apps

import (
	"context"
	"fmt"
	"strings"

	"arrmada/pkg/logging"
)

// TuneProtocols aligns the application's protocol preferences with what
// the aggregator can actually serve: with a usenet indexer available,
// prefer usenet and delay torrent grabs; without one, prefer torrents
// with no delay.
func (a *Arr) TuneProtocols(ctx context.Context, hasUsenet bool, torrentDelay int) error {
	if !hasUsenet {
		torrentDelay = 0
	}
	if err := a.setIndexerConfig(ctx, hasUsenet); err != nil {
		return err
	}
	usenetDelay := 0
	return a.setDelayProfiles(ctx, hasUsenet, usenetDelay, torrentDelay)
}

// setIndexerConfig updates the app-wide indexer preferences. Different
// builds expose different keys (preferUsenet bool vs preferredProtocol
// string), so only keys present in the fetched config are touched.
func (a *Arr) setIndexerConfig(ctx context.Context, preferUsenet bool) error {
	var cfg map[string]interface{}
	if err := a.getJSON(ctx, "/config/indexer", &cfg); err != nil {
		return fmt.Errorf("get indexer config for %s: %w", a.Name, err)
	}

	desired := make(map[string]interface{}, len(cfg))
	for k, v := range cfg {
		desired[k] = v
	}
	setIfPresent(desired, "enableTorrent", true)
	setIfPresent(desired, "enableUsenet", preferUsenet)
	setIfPresent(desired, "preferUsenet", preferUsenet)
	if _, ok := desired["preferredProtocol"]; ok {
		proto := "torrent"
		if preferUsenet {
			proto = "usenet"
		}
		desired["preferredProtocol"] = proto
	}

	if equalMaps(desired, cfg) {
		logging.Debug(subsystem, "%s indexer config already tuned", a.Name)
		return nil
	}
	// Some builds reject this read-only key on write.
	delete(desired, "updateAutomatically")
	if err := a.putJSON(ctx, "/config/indexer", desired); err != nil {
		return fmt.Errorf("set indexer config for %s: %w", a.Name, err)
	}
	logging.Info(subsystem, "Tuned %s indexer config (preferUsenet=%v)", a.Name, preferUsenet)
	return nil
}

// setDelayProfiles sets the protocol preference and grab delays on every
// delay profile. The preferredProtocol key is an enum on some builds
// (1=usenet, 2=torrent) and a string on others.
func (a *Arr) setDelayProfiles(ctx context.Context, preferUsenet bool, usenetDelay, torrentDelay int) error {
	var profiles []map[string]interface{}
	if err := a.getJSON(ctx, "/delayprofile", &profiles); err != nil {
		return fmt.Errorf("get delay profiles for %s: %w", a.Name, err)
	}

	for _, p := range profiles {
		changed := false
		if current, ok := p["preferredProtocol"]; ok {
			switch v := current.(type) {
			case float64:
				want := float64(2)
				if preferUsenet {
					want = 1
				}
				if v != want {
					p["preferredProtocol"] = want
					changed = true
				}
			default:
				want := "torrent"
				if preferUsenet {
					want = "usenet"
				}
				if !strings.EqualFold(fmt.Sprint(current), want) {
					p["preferredProtocol"] = want
					changed = true
				}
			}
		}
		if num(p["usenetDelay"]) != usenetDelay {
			p["usenetDelay"] = usenetDelay
			changed = true
		}
		if num(p["torrentDelay"]) != torrentDelay {
			p["torrentDelay"] = torrentDelay
			changed = true
		}
		if !changed {
			continue
		}
		if err := a.putJSON(ctx, fmt.Sprintf("/delayprofile/%v", p["id"]), p); err != nil {
			return fmt.Errorf("update delay profile %v for %s: %w", p["id"], a.Name, err)
		}
		logging.Info(subsystem, "Updated %s delay profile %v (usenetDelay=%ds, torrentDelay=%ds)",
			a.Name, p["id"], usenetDelay, torrentDelay)
	}
	return nil
}

// SetClientPriorities orders the download clients: the preferred client
// gets priority 1, the other 2 (lowest number wins), and any remaining
// clients are pushed to 3 and up when they would collide.
func (a *Arr) SetClientPriorities(ctx context.Context, sabFirst bool) error {
	var clients []map[string]interface{}
	if err := a.getJSON(ctx, "/downloadclient", &clients); err != nil {
		return fmt.Errorf("list download clients for %s: %w", a.Name, err)
	}

	var sab, qb map[string]interface{}
	for _, c := range clients {
		switch c["implementation"] {
		case "SABnzbd":
			if sab == nil {
				sab = c
			}
		case "QBittorrent":
			if qb == nil {
				qb = c
			}
		}
	}
	if sab == nil && qb == nil {
		logging.Debug(subsystem, "%s has no SABnzbd/qBittorrent clients, leaving priorities alone", a.Name)
		return nil
	}

	desired := make(map[interface{}]int, len(clients))
	assign := func(c map[string]interface{}, prio int) {
		if c != nil {
			desired[c["id"]] = prio
		}
	}
	if sabFirst && sab != nil {
		assign(sab, 1)
		assign(qb, 2)
	} else {
		assign(qb, 1)
		assign(sab, 2)
	}

	used := make(map[int]bool, len(desired))
	for _, p := range desired {
		used[p] = true
	}
	nextFree := 3
	for _, c := range clients {
		if _, ok := desired[c["id"]]; ok {
			continue
		}
		p := num(c["priority"])
		if p < 3 || used[p] {
			p = nextFree
			nextFree++
		}
		desired[c["id"]] = p
		used[p] = true
	}

	for _, c := range clients {
		want := desired[c["id"]]
		if num(c["priority"]) == want {
			continue
		}
		c["priority"] = want
		if err := a.putJSON(ctx, fmt.Sprintf("/downloadclient/%v", c["id"]), c); err != nil {
			return fmt.Errorf("update client %v priority for %s: %w", c["id"], a.Name, err)
		}
		logging.Info(subsystem, "Set %s client %v priority to %d", a.Name, c["name"], want)
	}
	return nil
}

func num(v interface{}) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}
