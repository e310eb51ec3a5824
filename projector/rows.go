package projector

import (
	"strconv"
	"strings"
	"time"

	"nodeboard/snapshot"
	"nodeboard/strutil"

	"github.com/dustin/go-humanize"
)

// PeerRow is the display-ready form of one peer. Rows are plain values: the
// display groups are arrays, so copying a row copies everything.
type PeerRow struct {
	Address          string
	ProtocolVersion  int64
	UserAgent        string
	ConnectedSince   int64
	Services         uint64
	Height           int64
	Hostname         string
	City             string
	CountryCode      string
	Latitude         float64
	Longitude        float64
	Timezone         string
	ASN              string
	OrganizationName string

	AddressDisplay   [3]string
	UserAgentDisplay [3]string
	LocationDisplay  [3]string
	NetworkDisplay   [3]string

	DisplayIndex int
}

// mapRow copies the positional tuple into named fields. Missing or
// non-numeric values fall back to zero values; connectedSince that cannot be
// parsed becomes the epoch.
func mapRow(t snapshot.PeerTuple) PeerRow {
	since, _ := t.Int(snapshot.FieldConnectedSince)
	version, _ := t.Int(snapshot.FieldProtocolVersion)
	services, _ := t.Int(snapshot.FieldServices)
	height, _ := t.Int(snapshot.FieldHeight)
	lat, _ := t.Float(snapshot.FieldLatitude)
	lon, _ := t.Float(snapshot.FieldLongitude)
	return PeerRow{
		Address:          t.Text(snapshot.FieldHost) + ":" + t.Text(snapshot.FieldPort),
		ProtocolVersion:  version,
		UserAgent:        t.Text(snapshot.FieldUserAgent),
		ConnectedSince:   since,
		Services:         uint64(services),
		Height:           height,
		Hostname:         t.Text(snapshot.FieldHostname),
		City:             t.Text(snapshot.FieldCity),
		CountryCode:      t.Text(snapshot.FieldCountryCode),
		Latitude:         lat,
		Longitude:        lon,
		Timezone:         t.Text(snapshot.FieldTimezone),
		ASN:              t.Text(snapshot.FieldASN),
		OrganizationName: t.Text(snapshot.FieldOrganizationName),
	}
}

func mapRows(snap *snapshot.Snapshot) []PeerRow {
	if snap == nil || len(snap.Peers) == 0 {
		return nil
	}
	rows := make([]PeerRow, len(snap.Peers))
	for i, tuple := range snap.Peers {
		rows[i] = mapRow(tuple)
	}
	return rows
}

// withDisplay returns r with the four three-line display groups filled in.
func (r PeerRow) withDisplay(now time.Time, namer NetworkNamer) PeerRow {
	r.AddressDisplay = [3]string{
		r.Address,
		r.Hostname,
		"since " + RelativeTime(r.ConnectedSince, now),
	}
	r.UserAgentDisplay = [3]string{
		r.UserAgent + " (" + strconv.FormatInt(r.ProtocolVersion, 10) + ")",
		strings.Join(ServiceLabels(r.Services), ", "),
		"height: " + strconv.FormatInt(r.Height, 10),
	}
	r.LocationDisplay = [3]string{
		strutil.JoinNonEmpty(",", r.CountryCode, r.City),
		r.Timezone,
		"",
	}
	r.NetworkDisplay = [3]string{
		namer.MapOrganizationName(r.OrganizationName),
		r.ASN,
		"",
	}
	return r
}

// RelativeTime renders a unix timestamp relative to now ("3 hours ago").
func RelativeTime(unix int64, now time.Time) string {
	return humanize.RelTime(time.Unix(unix, 0), now, "ago", "from now")
}

type identityNamer struct{}

func (identityNamer) MapOrganizationName(raw string) string { return raw }
