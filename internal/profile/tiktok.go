package profile

type TikTok struct{}

func init() {
	Register(&TikTok{})
}

func (p *TikTok) GetName() string {
	return "tiktok"
}

func (p *TikTok) GetMaxDimensions() (width, height int) {
	return 1080, 1920
}

func (p *TikTok) GetMaxDuration() int {
	return 180
}

func (p *TikTok) GetCRF() int {
	return 23
}

func (p *TikTok) GetPreset() string {
	return "slower"
}

func (p *TikTok) GetAudioBitrate() string {
	return "128k"
}
