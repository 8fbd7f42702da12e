package vfs

import "github.com/GriffinCanCode/playground/internal/shared/types"

// DefaultProject returns the starter project a new session opens with
func DefaultProject() []types.ProjectFile {
	return []types.ProjectFile{
		{Path: "index.html", Content: starterHTML},
		{Path: "style.css", Content: starterCSS},
		{Path: "script.js", Content: starterJS},
	}
}

const starterHTML = `<!DOCTYPE html>
<html>
  <head>
    <title>HTML, CSS, JS Playground</title>
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <link rel="stylesheet" href="style.css" />
  </head>
  <body>
    <h1>Hello, World!</h1>
    <p>This is a simple playground. Try editing the files!</p>
    <button id="my-button">Click Me</button>
    <script type="module" src="script.js"></script>
  </body>
</html>
`

const starterCSS = `body {
  font-family: sans-serif;
  display: flex;
  flex-direction: column;
  align-items: center;
  justify-content: center;
  height: 100vh;
  margin: 0;
}

button {
  margin-top: 1rem;
  padding: 0.5rem 1rem;
  font-size: 1rem;
  cursor: pointer;
  border: 1px solid #ccc;
  border-radius: 4px;
}
`

const starterJS = `// Bare imports are fetched from the package registry.
import confetti from 'canvas-confetti';

const button = document.getElementById('my-button');

button.addEventListener('click', () => {
  confetti({
    particleCount: 100,
    spread: 70,
    origin: { y: 0.6 }
  });
});

console.log('Script loaded!');
`
