package syslogin

import "github.com/netleaf/telemetry/pkg/config"

// EnrichedRecord is the final emitted shape: timestamp, stat name/attr,
// tag map, and attribute map, decorated with configuration-derived
// location/tenant/device context (spec §4.5).
type EnrichedRecord struct {
	TimestampUS  int64
	StatName     string
	StatAttr     string
	Tags         map[string]string
	Attribs      map[string]any
	IsStructured bool
}

// Enrich builds the final record from a decoded Frame and its rule
// classification, adding hostname/tenant/device/location context looked
// up from reg. reg may be nil (or hold no matching records) — enrichment
// degrades to just the classified fields in that case.
func Enrich(reg *config.Registry, f *Frame, c Classified, timestampUS int64) EnrichedRecord {
	rec := EnrichedRecord{
		TimestampUS:  timestampUS,
		StatName:     f.Program,
		StatAttr:     f.Tag,
		Tags:         c.Tags,
		Attribs:      map[string]any{},
		IsStructured: f.IsStructured,
	}
	rec.Attribs["Source"] = f.Peer
	rec.Attribs["data.hostname"] = f.Hostname
	rec.Attribs["data.prog"] = f.Program
	rec.Attribs["data.tag"] = f.Tag
	for k, v := range c.Attribs {
		rec.Attribs["data."+k] = v
	}

	if reg == nil {
		return rec
	}

	host, ok := reg.GetHostnameRecord(f.Hostname)
	if !ok {
		return rec
	}
	rec.Attribs["data.tenant"] = host.Tenant
	rec.Attribs["data.location"] = host.Location
	rec.Attribs["data.device"] = host.Device

	if tenant, ok := reg.GetTenantRecord(host.Tenant); ok {
		rec.Attribs["data.tenant_addr"] = tenant.TenantAddr
	}

	vpn := host.Tenant
	if v, ok := f.Fields["vpn"]; ok && v != "" {
		vpn = v
	}
	key := host.Tenant + "::" + vpn

	if srcIP, ok := f.Fields["source-address"]; ok {
		if loc := reg.IPIndex().Find(srcIP, key, host.Location); loc != "" {
			rec.Attribs["data.source-location"] = loc
		}
	}
	if dstIP, ok := f.Fields["destination-address"]; ok {
		if loc := reg.IPIndex().Find(dstIP, key, host.Location); loc != "" {
			rec.Attribs["data.destination-location"] = loc
		}
	}

	return rec
}
