// Package browser provides shared chromedp configuration with anti-bot-detection measures.
package browser

import "github.com/chromedp/chromedp"

// DefaultUserAgent is a realistic Chrome user agent
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// HideMediaScript is injected into every new document when media blocking
// is on. Video players keep fetching streams even with images disabled.
const HideMediaScript = `(() => {
	const style = document.createElement('style');
	style.textContent = 'video, .video-js, .media-player__player, .linkedin-player, ytd-player { display: none !important; }';
	(document.head || document.documentElement).appendChild(style);
	document.addEventListener('play', e => { if (e.target && e.target.pause) e.target.pause(); }, true);
})();`

// Options returns chromedp allocator options with anti-bot-detection measures.
// Every scrape and login browser uses these.
func Options(headless, blockMedia bool) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),

		// Prevent navigator.webdriver = true; LinkedIn checks this
		chromedp.Flag("disable-blink-features", "AutomationControlled"),

		chromedp.UserAgent(DefaultUserAgent),
		chromedp.WindowSize(1920, 1080),

		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("mute-audio", true),
	)

	if headless {
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	}

	if blockMedia {
		opts = append(opts,
			chromedp.Flag("blink-settings", "imagesEnabled=false"),
			chromedp.Flag("autoplay-policy", "user-gesture-required"),
		)
	}

	return opts
}

// LoginOptions returns options for the visible browser used for manual login
func LoginOptions() []chromedp.ExecAllocatorOption {
	return append(Options(false, false),
		chromedp.Flag("start-maximized", true),
	)
}
