package profile

type Instagram struct{}

func init() {
	Register(&Instagram{})
}

func (p *Instagram) GetName() string {
	return "instagram-reel"
}

func (p *Instagram) GetMaxDimensions() (width, height int) {
	return 1080, 1920
}

func (p *Instagram) GetMaxDuration() int {
	return 90
}

func (p *Instagram) GetCRF() int {
	return 23
}

func (p *Instagram) GetPreset() string {
	return "slower"
}

func (p *Instagram) GetAudioBitrate() string {
	return "128k"
}
