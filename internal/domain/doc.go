// Package domain models NYC DOHMH dog bite report data.
//
// # Data Source
//
// Incident records come from the NYC Open Data "DOHMH Dog Bite Data" dataset,
// served by the Socrata export API as a JSON array of loosely-typed objects.
// All values, including dates and booleans, arrive as strings and must be
// parsed rather than trusted.
//
// # Upstream Data Conventions
//
// Unique IDs:
//
//	The dataset's UniqueID column contains duplicates and must not be used for
//	identity. IDs are assigned here as a dense 1-based sequence over the
//	records stable-sorted by bite date, with fetch order breaking ties. IDs
//	are reassigned whenever the set is re-filtered, so they are only dense and
//	unique over the collection they were stamped on. See [AssignIDs].
//
// Dates:
//
//	DateOfBite is a Socrata floating timestamp ("2018-01-09T00:00:00.000"),
//	though exported snapshots have also used "January 09 2018". Records whose
//	date parses under none of the known layouts are dropped during
//	normalization, not defaulted.
//
// Breed:
//
//	Free text with wildly inconsistent casing, spacing, and trailing
//	punctuation ("Pit Bull", "PIT BULL MIX!!", "pit  bull"). Normalized by
//	[NormalizeBreed]: lower-case, trim, collapse interior whitespace, strip
//	trailing non-letters, in that order, so the trailing token is identified
//	after spacing is fixed. The function is idempotent.
//
// Age:
//
//	Free text as submitted ("2 years", "3 months", "4MOS", "10 weeks").
//	Resolved against a hand-curated lookup table by exact string match; any
//	variant not byte-identical to a curated key silently stays unresolved.
//	This is a documented limitation of the source workflow and is preserved,
//	not corrected. The table's construction policy (numeric-only text is
//	years, week/month qualifiers convert to months, the largest magnitude in
//	a string wins, implausible year values are reinterpreted as months) lives
//	with the curated asset, not in this pipeline.
//
// Spay/neuter:
//
//	A "false" value conflates "confirmed intact" and "unknown". That ambiguity
//	is a property of the source data and is carried through as-is.
//
// # Geographic Scope
//
// Records are joined to a per-ZIP reference table and then filtered to the
// five boroughs: the reference state must be "NY" and the reference county one
// of New York, Kings, Queens, Bronx, or Richmond County. ZIP codes that fail
// to join, or that resolve outside the city, are excluded rather than
// corrected.
package domain
