package config

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/netleaf/telemetry/pkg/ipindex"
	"github.com/netleaf/telemetry/pkg/util"
)

// DefaultGlobalAnalyticsTenant is the well-known tenant under which an
// ApplicationRecord is globally addressable rather than tenant-scoped
// (spec §3).
const DefaultGlobalAnalyticsTenant = "default-global-analytics-config"

// Registry is the Configuration Registry: five record maps plus the
// IP-Network Index, exclusively owned here and read-only shared with
// Enrichment (spec §3, Ownership).
type Registry struct {
	ipIndex *ipindex.Index

	hostnameMu sync.RWMutex
	hostnames  map[string]*HostnameRecord

	tenantMu sync.RWMutex
	tenants  map[string]*TenantRecord

	applicationMu sync.RWMutex
	applications  map[string]*ApplicationRecord // global scope, keyed by name

	tenantApplicationMu sync.RWMutex
	tenantApplications  map[string]*ApplicationRecord // keyed by "<tenant>/<name>"

	slaMu sync.RWMutex
	slaProfiles map[string]*SlaProfileRecord

	rules *ruleIndex
}

// New creates an empty Registry backed by idx, its IP-Network Index.
func New(idx *ipindex.Index) *Registry {
	return &Registry{
		ipIndex:            idx,
		hostnames:          make(map[string]*HostnameRecord),
		tenants:            make(map[string]*TenantRecord),
		applications:       make(map[string]*ApplicationRecord),
		tenantApplications: make(map[string]*ApplicationRecord),
		slaProfiles:        make(map[string]*SlaProfileRecord),
		rules:              newRuleIndex(),
	}
}

// IPIndex returns the registry's IP-Network Index, for Enrichment to
// query directly.
func (reg *Registry) IPIndex() *ipindex.Index { return reg.ipIndex }

// ReceiveConfig decodes one JSON config event and dispatches it to the
// handler for whichever record kind is present, exactly as
// StructuredSyslogConfig::ReceiveConfig tries all five handlers in turn.
// Malformed JSON drops the event with a logged error; it never poisons
// subsequent events (spec §4.4 Failure).
func (reg *Registry) ReceiveConfig(raw []byte, addChange bool) error {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		util.WithField("error", err).Error("dropping malformed config event")
		return util.NewParseError("config event", err.Error())
	}
	if ev.HostnameRecord != nil {
		reg.handleHostnameRecord(ev.HostnameRecord, addChange)
	}
	if ev.TenantRecord != nil {
		reg.handleTenantRecord(ev.TenantRecord, addChange)
	}
	if ev.ApplicationRecord != nil {
		reg.handleApplicationRecord(ev.ApplicationRecord, addChange)
	}
	if ev.Message != nil {
		reg.handleMessageRule(ev.Message, addChange)
	}
	if ev.SlaProfile != nil {
		reg.handleSlaProfileRecord(ev.SlaProfile, addChange)
	}
	return nil
}

// --- hostname ---------------------------------------------------------

func (reg *Registry) handleHostnameRecord(doc *hostnameRecordDoc, addChange bool) {
	name := fqLastName(doc.FqName)
	if name == "" {
		util.Logger.Warn("hostname record event missing fq_name, ignoring")
		return
	}

	var linkMap map[string]string
	if doc.LinkMap != nil {
		linkMap = make(map[string]string, len(doc.LinkMap.Links))
		for _, l := range doc.LinkMap.Links {
			linkMap[l.Overlay] = l.Underlay + "@" + l.LinkType + "@" + l.TrafficDestination + "@" + l.Metadata
		}
	}

	if doc.LANSegmentList != nil {
		// If any existing hostname record already advertises this
		// location, purge its IP-Network entries before admitting the
		// new LAN segment list (spec §4.4, a location is re-advertised
		// by a new hostname record).
		if reg.locationAlreadyAdvertised(doc.Location) {
			reg.ipIndex.Purge(doc.Location)
		}
		for _, seg := range doc.LANSegmentList.LANSegmentList {
			for _, cidr := range util.SplitCommaSeparated(seg.NetworkRanges) {
				ipMask := strings.SplitN(cidr, "/", 2)
				if len(ipMask) != 2 {
					continue
				}
				key := doc.Tenant + "::" + seg.VPN
				mask := prefixLenToMask(ipMask[1])
				if mask == "" {
					continue
				}
				if err := reg.ipIndex.Add(key, ipMask[0], mask, doc.Location); err != nil {
					util.WithField("error", err).Warn("skipping invalid LAN segment entry")
				}
			}
		}
	}

	reg.hostnameMu.Lock()
	existing, had := reg.hostnames[name]
	reg.hostnameMu.Unlock()

	if addChange {
		if had {
			// Open Question 1 (SPEC_FULL §9): purge the record's
			// *previous* location, not the incoming one, before the
			// refresh takes effect.
			prevLocation := existing.Location()
			if prevLocation != "" && prevLocation != doc.Location {
				reg.ipIndex.Purge(prevLocation)
			}
			existing.refresh(name, doc.HostAddr, doc.Tenant, doc.Location, doc.Device, doc.Tags, linkMap)
		} else {
			reg.hostnameMu.Lock()
			reg.hostnames[name] = newHostnameRecord(name, doc.HostAddr, doc.Tenant, doc.Location, doc.Device, doc.Tags, linkMap)
			reg.hostnameMu.Unlock()
		}
		return
	}

	if had {
		if loc := existing.Location(); loc != "" {
			reg.ipIndex.Purge(loc)
		}
		reg.hostnameMu.Lock()
		delete(reg.hostnames, name)
		reg.hostnameMu.Unlock()
	}
}

func (reg *Registry) locationAlreadyAdvertised(location string) bool {
	if location == "" {
		return false
	}
	reg.hostnameMu.RLock()
	defer reg.hostnameMu.RUnlock()
	for _, r := range reg.hostnames {
		if r.Location() == location {
			return true
		}
	}
	return false
}

// GetHostnameRecord returns the record for name, or ok=false if absent.
func (reg *Registry) GetHostnameRecord(name string) (HostnameSnapshot, bool) {
	reg.hostnameMu.RLock()
	r, ok := reg.hostnames[name]
	reg.hostnameMu.RUnlock()
	if !ok {
		return HostnameSnapshot{}, false
	}
	return r.Snapshot(), true
}

// --- tenant -------------------------------------------------------------

func (reg *Registry) handleTenantRecord(doc *tenantRecordDoc, addChange bool) {
	name := fqLastName(doc.FqName)
	if name == "" {
		return
	}
	var ipv4, ipv6 map[string]string
	if doc.DscpMap != nil {
		ipv4 = make(map[string]string, len(doc.DscpMap.DscpListIPv4))
		for _, e := range doc.DscpMap.DscpListIPv4 {
			ipv4[e.DscpValue] = e.AliasCode
		}
		ipv6 = make(map[string]string, len(doc.DscpMap.DscpListIPv6))
		for _, e := range doc.DscpMap.DscpListIPv6 {
			ipv6[e.DscpValue] = e.AliasCode
		}
	}

	reg.tenantMu.Lock()
	defer reg.tenantMu.Unlock()
	if addChange {
		if existing, ok := reg.tenants[name]; ok {
			existing.refresh(name, doc.TenantAddr, doc.Tenant, doc.Tags, ipv4, ipv6)
		} else {
			reg.tenants[name] = newTenantRecord(name, doc.TenantAddr, doc.Tenant, doc.Tags, ipv4, ipv6)
		}
		return
	}
	delete(reg.tenants, name)
}

// GetTenantRecord returns the record for name, or ok=false if absent.
func (reg *Registry) GetTenantRecord(name string) (TenantSnapshot, bool) {
	reg.tenantMu.RLock()
	r, ok := reg.tenants[name]
	reg.tenantMu.RUnlock()
	if !ok {
		return TenantSnapshot{}, false
	}
	return r.Snapshot(), true
}

// --- application ----------------------------------------------------

func (reg *Registry) handleApplicationRecord(doc *applicationRecordDoc, addChange bool) {
	name := fqLastName(doc.FqName)
	if name == "" {
		return
	}
	tenant := fqTenant(doc.FqName)

	if tenant == DefaultGlobalAnalyticsTenant {
		reg.applicationMu.Lock()
		defer reg.applicationMu.Unlock()
		if addChange {
			if existing, ok := reg.applications[name]; ok {
				existing.refresh(name, doc.Category, doc.Subcategory, doc.Groups, doc.Risk, doc.ServiceTags)
			} else {
				reg.applications[name] = newApplicationRecord(name, doc.Category, doc.Subcategory, doc.Groups, doc.Risk, doc.ServiceTags)
			}
			return
		}
		delete(reg.applications, name)
		return
	}

	scopedName := tenant + "/" + name
	reg.tenantApplicationMu.Lock()
	defer reg.tenantApplicationMu.Unlock()
	if addChange {
		if existing, ok := reg.tenantApplications[scopedName]; ok {
			existing.refresh(scopedName, doc.Category, doc.Subcategory, doc.Groups, doc.Risk, doc.ServiceTags)
		} else {
			reg.tenantApplications[scopedName] = newApplicationRecord(scopedName, doc.Category, doc.Subcategory, doc.Groups, doc.Risk, doc.ServiceTags)
		}
		return
	}
	delete(reg.tenantApplications, scopedName)
}

// GetApplicationRecord returns the globally addressable record for name.
func (reg *Registry) GetApplicationRecord(name string) (ApplicationSnapshot, bool) {
	reg.applicationMu.RLock()
	r, ok := reg.applications[name]
	reg.applicationMu.RUnlock()
	if !ok {
		return ApplicationSnapshot{}, false
	}
	return r.Snapshot(), true
}

// GetTenantApplicationRecord returns the tenant-scoped record keyed
// "<tenant>/<name>".
func (reg *Registry) GetTenantApplicationRecord(scopedName string) (ApplicationSnapshot, bool) {
	reg.tenantApplicationMu.RLock()
	r, ok := reg.tenantApplications[scopedName]
	reg.tenantApplicationMu.RUnlock()
	if !ok {
		return ApplicationSnapshot{}, false
	}
	return r.Snapshot(), true
}

// --- SLA profile ------------------------------------------------------

func (reg *Registry) handleSlaProfileRecord(doc *slaProfileDoc, addChange bool) {
	name := fqLastName(doc.FqName)
	if name == "" {
		return
	}
	scopedName := fqTenant(doc.FqName) + "/" + name

	reg.slaMu.Lock()
	defer reg.slaMu.Unlock()
	if addChange {
		if existing, ok := reg.slaProfiles[scopedName]; ok {
			existing.refresh(scopedName, doc.SlaParams)
		} else {
			reg.slaProfiles[scopedName] = newSlaProfileRecord(scopedName, doc.SlaParams)
		}
		return
	}
	delete(reg.slaProfiles, scopedName)
}

// GetSlaProfileRecord returns the SLA profile keyed "<tenant>/<name>".
func (reg *Registry) GetSlaProfileRecord(scopedName string) (name, params string, ok bool) {
	reg.slaMu.RLock()
	r, found := reg.slaProfiles[scopedName]
	reg.slaMu.RUnlock()
	if !found {
		return "", "", false
	}
	n, p := r.Snapshot()
	return n, p, true
}

// --- message rule -------------------------------------------------------

func (reg *Registry) handleMessageRule(doc *messageDoc, addChange bool) {
	name := fqLastName(doc.FqName)
	if name == "" {
		return
	}
	var tags, ints []string
	if doc.TaggedFields != nil {
		tags = doc.TaggedFields.FieldNames
	}
	if doc.IntegerFields != nil {
		ints = doc.IntegerFields.FieldNames
	}

	if addChange {
		if existing := reg.rules.get(name); existing != nil {
			existing.refresh(name, tags, ints, doc.ProcessAndStore, doc.Forward, doc.ProcessAndSummarize, doc.ProcessAndSummarizeU)
			return
		}
		reg.rules.add(name, newMessageRule(name, tags, ints, doc.ProcessAndStore, doc.Forward, doc.ProcessAndSummarize, doc.ProcessAndSummarizeU))
		return
	}
	reg.rules.remove(name)
}

// GetMessageRule resolves name to a MessageRule: exact match first, then
// regex fallback per spec §4.4/§8 invariant 3. Returns nil if nothing
// matches.
func (reg *Registry) GetMessageRule(name string) *MessageRuleSnapshot {
	rule := reg.rules.lookup(name)
	if rule == nil {
		return nil
	}
	s := rule.Snapshot()
	return &s
}

// prefixLenToMask accepts either a CIDR prefix length ("24") or a dotted
// mask ("255.255.255.0") and returns the dotted mask form.
func prefixLenToMask(s string) string {
	if util.IsValidIPv4(s) {
		return s
	}
	var bits int
	for _, c := range s {
		if c < '0' || c > '9' {
			return ""
		}
		bits = bits*10 + int(c-'0')
	}
	if bits < 0 || bits > 32 {
		return ""
	}
	var mask uint32
	if bits == 0 {
		mask = 0
	} else {
		mask = ^uint32(0) << uint(32-bits)
	}
	return util.Uint32ToIP(mask)
}
