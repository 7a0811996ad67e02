package profile

type Twitter struct{}

func init() {
	Register(&Twitter{})
}

func (p *Twitter) GetName() string {
	return "x-twitter"
}

func (p *Twitter) GetMaxDimensions() (width, height int) {
	return 1920, 1200
}

func (p *Twitter) GetMaxDuration() int {
	return 140
}

func (p *Twitter) GetCRF() int {
	return 21
}

func (p *Twitter) GetPreset() string {
	return "slow"
}

func (p *Twitter) GetAudioBitrate() string {
	return "128k"
}
