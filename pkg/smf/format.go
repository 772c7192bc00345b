package smf

// FormatDescription describes an encoding known to the format registry.
type FormatDescription struct {
	Name         string
	Suffix       string
	MimeType     string
	Description  string
	RandomAccess bool
}

// FormatProbeResult is a format and version recognised by a probe.
type FormatProbeResult struct {
	Format  FormatDescription
	Version FormatVersion
}
