package profile

// Default keeps the source image size and has no duration limit.
type Default struct{}

func init() {
	Register(&Default{})
}

func (p *Default) GetName() string {
	return "default"
}

func (p *Default) GetMaxDimensions() (width, height int) {
	return 0, 0
}

func (p *Default) GetMaxDuration() int {
	return 0
}

func (p *Default) GetCRF() int {
	return 23
}

func (p *Default) GetPreset() string {
	return "medium"
}

func (p *Default) GetAudioBitrate() string {
	return "128k"
}
